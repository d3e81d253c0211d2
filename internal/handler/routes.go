package handler

import (
	"html/template"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/internal/middleware"
	"github.com/noah-isme/egresados-intake/internal/models"
	"github.com/noah-isme/egresados-intake/internal/service"
	"github.com/noah-isme/egresados-intake/pkg/logger"
	"github.com/noah-isme/egresados-intake/pkg/middleware/requestid"
	"github.com/noah-isme/egresados-intake/pkg/session"
)

// RouterConfig carries what the router needs besides the handlers.
type RouterConfig struct {
	Logger    *zap.Logger
	Metrics   *service.MetricsService
	Sessions  *session.Manager
	Wizard    *service.WizardService
	Templates *template.Template
	// TLS enables HSTS.
	TLS bool
	// Docs mounts Swagger UI at /docs.
	Docs bool
}

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Intake  *IntakeHandler
	Auth    *AuthHandler
	Admin   *AdminHandler
	Export  *ExportHandler
	Metrics *MetricsHandler
}

// NewRouter builds the gin engine with every public and admin route.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(cfg.Metrics, "/metrics"))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.TLS)))
	if cfg.Templates != nil {
		r.SetHTMLTemplate(cfg.Templates)
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/", h.Intake.Home)
	step := func(s models.WizardStep) gin.HandlerFunc {
		return middleware.RequireStep(cfg.Sessions, cfg.Wizard, s)
	}
	for _, s := range []models.WizardStep{models.StepDocumentCheck, models.StepPaymentCheck, models.StepPrivacyConsent} {
		r.GET(s.Path(), step(s), h.Intake.ShowStep(s))
		r.POST(s.Path(), step(s), h.Intake.AnswerStep(s))
	}
	r.GET(models.StepForm.Path(), step(models.StepForm), h.Intake.ShowStep(models.StepForm))
	r.POST("/registrar", step(models.StepForm), h.Intake.Register)
	r.GET(models.StepSubmitted.Path(), step(models.StepSubmitted), h.Intake.ShowStep(models.StepSubmitted))

	r.GET(middleware.LoginPath, h.Auth.LoginPage)
	r.POST(middleware.LoginPath, h.Auth.Login)
	r.GET("/logout", h.Auth.Logout)

	admin := r.Group("/", middleware.RequireAdmin(cfg.Sessions))
	admin.GET("/admin", h.Admin.Dashboard)
	admin.GET("/admin/resumen", h.Admin.Summary)
	admin.POST("/actualizar_estatus", middleware.Audit(cfg.Logger, "update_status"), h.Admin.UpdateStatus)
	admin.POST("/eliminar_solicitud", middleware.Audit(cfg.Logger, "delete_application"), h.Admin.DeleteApplication)
	admin.GET("/uploads/:filename", middleware.Audit(cfg.Logger, "download_document"), h.Admin.Download)
	admin.GET("/exportar_pdf", middleware.Audit(cfg.Logger, "export_pdf"), h.Export.Export(service.ExportPDF))
	admin.GET("/exportar_excel", middleware.Audit(cfg.Logger, "export_excel"), h.Export.Export(service.ExportExcel))
	admin.GET("/exportar_csv", middleware.Audit(cfg.Logger, "export_csv"), h.Export.Export(service.ExportCSV))

	return r
}
