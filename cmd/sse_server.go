package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"interviewassistant/internal/utils/sse"
	logging "interviewassistant/pkg/logger/pkg"
)

const heartbeatInterval = 60 * time.Second

// subscriberPrefix keeps external subscribers apart from in-process ones such as the TUI.
const subscriberPrefix = "sse:"

func startSSE(hub *sse.Hub, logger *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", viper.GetString("sse.host"), viper.GetInt("sse.port")),
		Handler: newSSERouter(hub),
	}

	go func() {
		logger.Info("SSE server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start SSE server", zap.Error(err))
		}
	}()
	return srv
}

func newSSERouter(hub *sse.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())
	r.GET("/sse/events", sseEventStream(hub))
	return r
}

// requestID tags the request context so handler logs carry the caller's id.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func sseEventStream(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		subscriberID := c.Query("subscriber_id")
		if subscriberID == "" {
			subscriberID = uuid.NewString()
		}
		log := logging.Logger(c.Request.Context()).With(zap.String("subscriberId", subscriberID))

		key := subscriberPrefix + subscriberID
		ch := make(chan sse.Event, 16)
		if !hub.RegisterUniqueChannel(key, ch) {
			log.Warn("SSE subscriber id already connected")
			c.JSON(http.StatusConflict, gin.H{"error": "subscriber_id is already connected"})
			return
		}
		defer hub.UnregisterChannelIf(key, ch)
		log.Debug("SSE subscriber connected")

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

		c.SSEvent("connection_established", gin.H{
			"subscriberId": subscriberID,
			"timestamp":    time.Now().Unix(),
		})
		c.Writer.Flush()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				log.Debug("SSE subscriber gone")
				return

			case <-heartbeat.C:
				c.SSEvent("heartbeat", gin.H{"timestamp": time.Now().Unix()})
				c.Writer.Flush()

			case event := <-ch:
				c.SSEvent(event.Type, event)
				c.Writer.Flush()
			}
		}
	}
}
