package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osvaldoandrade/scanq/internal/controllers"
	"github.com/osvaldoandrade/scanq/internal/middleware"
)

func SetupMappings(app *Application) {
	authRequired := len(app.Validators) > 0

	v1 := app.Engine.Group("/v1/scanq")
	{
		v1.GET("/context", controllers.NewContextController(app.Intake).Handle)

		submit := v1.Group("",
			middleware.CSRFMiddleware(),
			middleware.RateLimitSubmit(app.RateLimiter, app.Config),
			middleware.AuthMiddleware(app.Validators),
		)
		if authRequired {
			submit.Use(middleware.RequireScope("scanq:submit"))
		}
		submit.POST("/submit", controllers.NewSubmitController(app.Intake, app.Config.MaxFileSizeMB).Handle)

		authed := v1.Group("", middleware.AuthMiddleware(app.Validators))
		if authRequired {
			authed.Use(middleware.RequireScope("scanq:read"))
		}
		authed.GET("/workers", controllers.NewWorkersController(app.Intake).Handle)

		// Reads accept a live seed in place of credentials, so auth here is
		// optional and the controller arbitrates.
		seedOrBearer := v1.Group("", middleware.OptionalAuth(app.Validators))
		seedOrBearer.GET("/tasks/:id", controllers.NewGetTaskController(app.TaskView, authRequired).Handle)

		admin := v1.Group("/admin",
			middleware.AuthMiddleware(app.Validators),
			middleware.RequireScope("scanq:admin"),
		)
		admin.GET("/stats", controllers.NewAdminStatsController(app.Intake).Handle)
		admin.POST("/cleanup",
			middleware.RateLimitAdminCleanup(app.RateLimiter, app.Config),
			controllers.NewAdminCleanupController(app.Intake).Handle)
	}

	view := controllers.NewAnalysisViewController(app.TaskView, authRequired)
	analysis := app.Engine.Group("/analysis", middleware.OptionalAuth(app.Validators))
	analysis.GET("/:id", view.Handle)
	analysis.GET("/:id/:share", view.HandleSeed)

	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
