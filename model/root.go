package model

// Root is the top-level configuration document for the dirwatch daemon.
type Root struct {
	Watches    []*Watch    `yaml:"watches"`
	HTTPServer *HTTPServer `yaml:"http_server"`
	ReportCron string      `yaml:"report_cron"`
}

// Watch declares one watched location.
type Watch struct {
	Name        string `yaml:"name"`
	Path        string `yaml:"path"`
	Recursive   bool   `yaml:"recursive"`
	BacklogSize int    `yaml:"backlog_size" default:"16384"`
}

// HTTPServer declares the control-plane listen address.
type HTTPServer struct {
	Network string `yaml:"network" default:"tcp"`
	Address string `yaml:"address"`
}
