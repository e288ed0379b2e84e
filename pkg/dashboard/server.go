package dashboard

import (
	"context"

	"github.com/infinivision/gridcore/pkg/member"
	"github.com/labstack/echo"
)

const (
	version = "/v1"
)

// Cfg dashboard cfg
type Cfg struct {
	Addr     string
	UI       string
	UIPrefix string
}

// Dashboard the admin api server of the members in this process
type Dashboard struct {
	cfg     Cfg
	server  *echo.Echo
	cluster *member.Cluster
}

// NewDashboard returns a dashboard server
func NewDashboard(cfg Cfg, cluster *member.Cluster) *Dashboard {
	s := &Dashboard{
		cfg:     cfg,
		server:  echo.New(),
		cluster: cluster,
	}

	s.server.HideBanner = true
	s.initRoute()
	return s
}

func (s *Dashboard) initRoute() {
	if s.cfg.UI != "" {
		s.server.Static(s.cfg.UIPrefix, s.cfg.UI)
	}

	s.server.GET("/check", s.check())
	versionGroup := s.server.Group(version)
	versionGroup.GET("/members", s.members())
	versionGroup.GET("/partitions", s.partitions())
	versionGroup.PUT("/partitions/:id/migrate", s.migrate())
	versionGroup.PUT("/partitions/:id/lost", s.lost())
	versionGroup.GET("/branches", s.branches())
	versionGroup.PUT("/branches/:xid/commit", s.commit())
	versionGroup.PUT("/branches/:xid/rollback", s.rollback())
	versionGroup.GET("/stats", s.stats())
}

// Start start the dashboard
func (s *Dashboard) Start() error {
	return s.server.Start(s.cfg.Addr)
}

// Stop stop the dashboard
func (s *Dashboard) Stop() error {
	return s.server.Shutdown(context.TODO())
}
