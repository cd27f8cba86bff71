package config

import (
	"github.com/robfig/cron/v3"
)

// Watch is one stored watch declaration.
type Watch struct {
	Name        string
	Path        string
	Recursive   bool
	BacklogSize int
}

// Server is a stored control-server declaration.
type Server struct {
	Name    string
	Network string
	Address string
}

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ReportSchedule returns the parsed report schedule, or nil when no
// schedule is configured. The expression was validated at load time.
func (c *Config) ReportSchedule() cron.Schedule {
	if len(c.ReportCron) == 0 {
		return nil
	}
	s, err := cronParser.Parse(c.ReportCron)
	if err != nil {
		panic(err)
	}
	return s
}
