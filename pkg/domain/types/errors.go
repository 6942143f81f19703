package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures by where they happened. Config and schedule
// errors are fatal at start-up; the rest abort only the current run.
var (
	ErrTagConfig            = goerr.NewTag("config")
	ErrTagScheduleSyntax    = goerr.NewTag("schedule_syntax")
	ErrTagSourceUnavailable = goerr.NewTag("source_unavailable")
	ErrTagSourceData        = goerr.NewTag("source_data")
	ErrTagSinkDelivery      = goerr.NewTag("sink_delivery")
)
