package utility

import (
	"log/slog"

	"github.com/raterudder/dayahead/pkg/log"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}
