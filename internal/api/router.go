package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/vigil/internal/api/handlers"
	"github.com/your-org/vigil/internal/api/ws"
	"github.com/your-org/vigil/internal/auth"
	"github.com/your-org/vigil/internal/detect"
	"github.com/your-org/vigil/internal/models"
	"github.com/your-org/vigil/internal/store"
	"github.com/your-org/vigil/pkg/dto"
)

type RouterConfig struct {
	APIKey         string
	Footage        *store.FootageStore
	Identities     *store.IdentityStore
	Supervisor     *detect.Supervisor
	Hub            *ws.Hub
	UploadsDir     string
	PhotosDir      string
	OutputSuffix   string
	MetadataSuffix string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Footage, cfg.Supervisor, cfg.UploadsDir)
	r.GET("/health", systemH.Health)
	r.GET("/ready", systemH.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/")
	authed.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	authed.GET("/ws", cfg.Hub.HandleWS)

	// Footage
	footageH := handlers.NewFootageHandler(cfg.Footage, cfg.Supervisor, cfg.UploadsDir, cfg.OutputSuffix, cfg.MetadataSuffix)
	if cfg.Hub != nil {
		footageH.Notify = func(event string, f *models.Footage) {
			cfg.Hub.BroadcastEvent(&dto.WSEvent{Type: event, FootageID: f.ID})
		}
	}
	authed.POST("/footage", footageH.Upload)
	authed.GET("/footage", footageH.List)
	authed.GET("/footage/all", footageH.ListAll)
	authed.GET("/footage/:id", footageH.Get)
	authed.DELETE("/footage/:id", footageH.Delete)

	// Media delivery
	videoH := handlers.NewVideoHandler(cfg.Footage)
	authed.GET("/video/stream/:id", videoH.Stream)

	// Identity registry
	identityH := handlers.NewIdentityHandler(cfg.Identities, cfg.PhotosDir)
	authed.GET("/nid-bank", identityH.List)
	authed.POST("/nid-bank", identityH.Register)
	authed.GET("/nid-bank/photo/:nid", identityH.Photo)
	authed.DELETE("/nid-bank/:nid", identityH.Delete)

	return r
}
