package server

import "github.com/gin-gonic/gin"

func (s *Server) routes() {
	s.router.GET("/health", s.health)
	if s.cfg.Telemetry.Metrics && s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/schema", s.schema)
		v1.GET("/options", s.options)
		v1.GET("/dashboard", s.dashboard)
		v1.POST("/dashboard", s.dashboard)
		v1.GET("/export", s.export)
		v1.POST("/export", s.export)
	}
}
