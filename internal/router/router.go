package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/survey-api/internal/handler"
	"github.com/noah-isme/survey-api/internal/middleware"
	"github.com/noah-isme/survey-api/internal/models"
	"github.com/noah-isme/survey-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/survey-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/survey-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by Wire.
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Surveys    *handler.SurveyHandler
	Questions  *handler.QuestionHandler
	Submission *handler.SubmissionHandler
	Metrics    *handler.MetricsHandler
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	EnableMetrics  bool
	Tokens         middleware.TokenValidator
	Audit          middleware.AuditRecorder
	Observer       middleware.RequestObserver
	Logger         *zap.Logger
}

// Wire builds the gin engine with every route of the service.
func Wire(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}
	r.Use(middleware.WithResponseMeta())

	auth := middleware.JWT(opts.Tokens)

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if opts.EnableMetrics {
		r.GET("/metrics", h.Metrics.Prometheus)
		r.GET("/metrics/summary", h.Metrics.Snapshot)
	}
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signin", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/signout", auth, h.Auth.Logout)
		authGroup.GET("/me", auth, h.Auth.Me)
	}

	api := r.Group(opts.APIPrefix)

	users := api.Group("/users")
	{
		users.GET("", h.Users.List)
		users.POST("", h.Users.Signup)
		users.POST("/resetpassword", h.Auth.ResetPassword)
		users.GET("/email/:email", h.Users.EmailAvailable)
		users.GET("/username/:username", h.Users.UsernameAvailable)
		users.GET("/:userId", auth, h.Users.Get)
		users.PUT("/:userId", auth, middleware.RequireSelf("userId"), h.Users.Update)
		users.DELETE("/:userId", auth, middleware.RequireSelf("userId"), h.Users.Delete)
		users.POST("/:userId/updatepassword", auth, middleware.RequireSelf("userId"), h.Auth.ChangePassword)
	}

	surveys := api.Group("/surveys")
	{
		surveys.GET("", h.Surveys.ListActive)
		surveys.GET("/by/:userId", auth, middleware.RequireSelf("userId"), h.Surveys.ListByOwner)
		surveys.POST("/by/:userId", auth, middleware.RequireSelf("userId"), h.Surveys.Create)

		surveys.GET("/questions/:surveyId", h.Questions.List)
		surveys.POST("/questions/:surveyId", auth, h.Questions.Create)
		surveys.DELETE("/questions/:surveyId", auth, h.Questions.RemoveAll)

		surveys.GET("/:id", h.Surveys.Get)
		surveys.PUT("/:id", auth, h.Surveys.Update)
		surveys.POST("/:id", auth, h.Surveys.Update)
		surveys.DELETE("/:id", auth, h.Surveys.Delete)
		surveys.PUT("/:id/activate", auth, h.Surveys.Activate)
		surveys.PUT("/:id/inactivate", auth, h.Surveys.Inactivate)
		surveys.GET("/:id/check", auth, h.Submission.Check)
		surveys.POST("/:id/submit", auth, h.Submission.Submit)
		surveys.GET("/:id/downloadresult", auth, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionResultExport, "surveys", "id"), h.Submission.Download)
	}

	questions := api.Group("/question")
	{
		questions.GET("/:id/get", h.Questions.Get)
		questions.POST("/:id/MC", auth, h.Questions.ReplaceOptions)
		questions.POST("/:id/:questionId", auth, h.Questions.Update)
		questions.POST("/:id/:questionId/updateName", auth, h.Questions.UpdateName)
		questions.DELETE("/:id/:questionId", auth, h.Questions.Delete)
	}

	return r
}
