package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	uuid "github.com/twinj/uuid"

	"labelbridge/controllers"
	"labelbridge/labeling"
	"labelbridge/labelstudio"
	"labelbridge/models"
	"labelbridge/storage"
	"labelbridge/utils"
)

// corsMiddleware Use middleware for CORS (Cross-Origin Resource Sharing)
// CORS for * origins, allowing:
// - PUT, GET, POST and PATCH methods
// - Origin header
// - Credentials share
// - Preflight requests cached for 12 hours
func corsMiddleware() gin.HandlerFunc {
	_corsMiddleware := cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"PUT", "GET", "POST", "PATCH"},
		AllowHeaders:     []string{"Origin"},
		ExposeHeaders:    []string{"X-Requested-With, Content-Type, Origin, Authorization, Accept, Client-Security-Token, Accept-Encoding, x-access-token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
	return _corsMiddleware
}

// requestIDMiddleware Generate a UUID and attach it to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		_uuid := uuid.NewV4()
		c.Writer.Header().Set("X-Request-Id", _uuid.String())
		c.Next()
	}
}

func main() {
	log.Info("Starting LabelBridge...")

	// Generate our config based on the config supplied
	// by the user in the flags
	configPath, debugMode, err := utils.ParseFlags()
	if err != nil {
		log.Fatal(err)
	}
	config, err := utils.NewConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Debug mode enables gin-gonic debug mode
	if debugMode == false {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to the database
	db, err := models.Connect(config.Database.URL)
	if err != nil {
		log.Fatal(err)
	}

	// Storage signer is optional until media is actually served
	var signer storage.Signer
	if config.Storage.Endpoint != "" {
		minioSigner, err := storage.NewMinioSigner(
			config.Storage.Endpoint,
			config.Storage.AccessKey,
			config.Storage.SecretKey,
			config.Storage.UseSSL,
		)
		if err != nil {
			log.Fatal(err)
		}
		signer = minioSigner
	} else {
		log.Warn("No storage endpoint configured, media redirects will fail")
	}

	client := labelstudio.NewClient(config.LabelStudio.BaseURL, config.LabelStudio.APIKey)

	// Cache of remote project exports, cleaned up once in a while
	exports := labeling.NewExportCache(60*time.Second, 30*time.Second)
	defer exports.Stop()

	orchestrator := labeling.NewOrchestrator(db, client, config, exports)
	recorder := labeling.NewEventRecorder(db)

	r := gin.Default()

	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Version tag to test against
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "v0.0.1",
		})
	})

	r.GET("/health", controllers.Health(config.Service.Name))

	// Labeling session orchestration
	r.POST("/labeling/start", controllers.StartLabeling(orchestrator))
	r.GET("/labeling/export/:annotation_set_id", controllers.GetExport(orchestrator))
	r.GET("/labeling/tasks/:task_id", controllers.GetTaskStatus(orchestrator))

	// Token-gated media redirect used by the external tool
	r.GET("/media/dataset-item/:id", controllers.GetDatasetItemMedia(db, signer, config))

	// Inbound callbacks from the external tool
	r.POST("/webhooks/labelstudio", controllers.LabelStudioWebhook(config.LabelStudio.WebhookSecret, recorder))

	// REST API mirroring the upstream dataset entities
	// Currently no authentication is used
	api := r.Group("/api")
	v1 := api.Group("/v1")
	{
		v1.GET("/annotation-sets", controllers.FindAnnotationSets(db))
		v1.POST("/annotation-sets", controllers.CreateAnnotationSet(db))
		v1.GET("/annotation-sets/:id", controllers.FindAnnotationSet(db))
		v1.GET("/dataset-items", controllers.FindDatasetItems(db))
		v1.POST("/dataset-items", controllers.CreateDatasetItem(db))
		v1.POST("/files", controllers.CreateFile(db))
		v1.GET("/files/:id", controllers.FindFile(db))
	}

	addr := fmt.Sprintf(":%s", config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with
	// a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscanll.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall. SIGKILL but can"t be catch, so don't need add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	// catching ctx.Done(). timeout of 1 seconds.
	select {
	case <-ctx.Done():
		log.Info("Timeout of 1 seconds.")
	}

	log.Info("Server exiting")

}
