package graphics

import (
	"log/slog"

	"github.com/tinyrange/glspin/internal/gl"
)

// InstallDebugOutput routes driver debug messages to log at error level and
// enables synchronous debug output. It fails when the context has no
// debug-message callback entry point.
func InstallDebugOutput(g gl.OpenGL, log *slog.Logger) error {
	err := g.DebugMessageCallback(func(m gl.DebugMessage) {
		log.Error("gl debug message",
			"source", m.SourceName(),
			"type", m.TypeName(),
			"id", m.ID,
			"severity", m.SeverityName(),
			"message", m.Message)
	})
	if err != nil {
		return err
	}
	g.Enable(gl.DebugOutput)
	g.Enable(gl.DebugOutputSynchronous)
	return nil
}
