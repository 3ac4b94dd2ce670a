package runtime

import (
	"context"
	"log/slog"

	"github.com/risor-io/risor/object"
)

// makeControlIDsFn creates the "control_ids" host function.
//
// control_ids() → []string
func makeControlIDsFn(ids []string) *object.Builtin {
	return object.NewBuiltin("control_ids", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("control_ids", 0, len(args))
		}
		items := make([]object.Object, 0, len(ids))
		for _, id := range ids {
			items = append(items, object.NewString(id))
		}
		return object.NewList(items)
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
