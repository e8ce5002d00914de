package router

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/softdesk-dev/softdesk/internal/auth"
	"github.com/softdesk-dev/softdesk/internal/handlers"
	"github.com/softdesk-dev/softdesk/internal/middleware"
	"github.com/softdesk-dev/softdesk/internal/services"
	"github.com/softdesk-dev/softdesk/internal/throttle"
	"gorm.io/gorm"
)

type Deps struct {
	DB             *gorm.DB
	Tokens         *auth.TokenManager
	Guard          throttle.LoginGuard
	AllowedOrigins []string
}

func init() {
	// Report validation failures with the JSON field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
	}
}

// route registers a path with and without its trailing slash.
func route(g *gin.RouterGroup, method, path string, chain ...gin.HandlerFunc) {
	g.Handle(method, path, chain...)
	g.Handle(method, path+"/", chain...)
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()
	r.RedirectTrailingSlash = false

	corsConfig := cors.Config{
		AllowOrigins:     deps.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(deps.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	r.Use(cors.New(corsConfig))

	users := services.NewUserService(deps.DB)

	authHandler := handlers.NewAuthHandler(users, deps.Tokens, deps.Guard)
	userHandler := handlers.NewUserHandler(users)
	projectHandler := handlers.NewProjectHandler(services.NewProjectService(deps.DB))
	contributorHandler := handlers.NewContributorHandler(services.NewContributorService(deps.DB))
	issueHandler := handlers.NewIssueHandler(services.NewIssueService(deps.DB))
	commentHandler := handlers.NewCommentHandler(services.NewCommentService(deps.DB))
	activityHandler := handlers.NewActivityHandler(services.NewActivityService(deps.DB))

	authenticated := middleware.AuthMiddleware(deps.Tokens, users)
	scoped := middleware.PathScope()

	api := &r.RouterGroup
	{
		route(api, "GET", "/health", handlers.HealthCheck(deps.DB, deps.Guard))
		route(api, "POST", "/login", authHandler.Login)
		route(api, "POST", "/token/refresh", authHandler.Refresh)

		userGroup := api.Group("/users")
		{
			route(userGroup, "POST", "", userHandler.Register)
			route(userGroup, "GET", "", authenticated, userHandler.List)
			route(userGroup, "GET", "/:user_id", authenticated, userHandler.Get)
			route(userGroup, "PUT", "/:user_id", authenticated, userHandler.Update)
			route(userGroup, "PATCH", "/:user_id", authenticated, userHandler.Update)
			route(userGroup, "DELETE", "/:user_id", authenticated, userHandler.Delete)
		}

		global := api.Group("", authenticated, scoped)
		{
			route(global, "GET", "/issues", issueHandler.List)
			route(global, "GET", "/comments", commentHandler.List)
		}

		projects := api.Group("/projects", authenticated, scoped)
		{
			route(projects, "GET", "", projectHandler.List)
			route(projects, "POST", "", projectHandler.Create)

			project := projects.Group("/:project_id")
			{
				route(project, "GET", "", projectHandler.Get)
				route(project, "PUT", "", projectHandler.Replace)
				route(project, "PATCH", "", projectHandler.Update)
				route(project, "DELETE", "", projectHandler.Delete)

				route(project, "GET", "/activity", activityHandler.List)

				route(project, "GET", "/contributors", contributorHandler.List)
				route(project, "POST", "/contributors", contributorHandler.Create)
				route(project, "DELETE", "/contributors/:contributor_id", contributorHandler.Delete)

				route(project, "GET", "/issues", issueHandler.List)
				route(project, "POST", "/issues", issueHandler.Create)

				issue := project.Group("/issues/:issue_id")
				{
					route(issue, "GET", "", issueHandler.Get)
					route(issue, "PUT", "", issueHandler.Replace)
					route(issue, "PATCH", "", issueHandler.Update)
					route(issue, "DELETE", "", issueHandler.Delete)

					route(issue, "GET", "/comments", commentHandler.List)
					route(issue, "POST", "/comments", commentHandler.Create)
					route(issue, "GET", "/comments/:comment_id", commentHandler.Get)
					route(issue, "PUT", "/comments/:comment_id", commentHandler.Replace)
					route(issue, "PATCH", "/comments/:comment_id", commentHandler.Update)
					route(issue, "DELETE", "/comments/:comment_id", commentHandler.Delete)
				}
			}
		}
	}

	return r
}
