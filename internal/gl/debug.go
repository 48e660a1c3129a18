package gl

// DebugMessage is one record delivered by the driver's debug output.
type DebugMessage struct {
	Source   uint32
	Type     uint32
	ID       uint32
	Severity uint32
	Message  string
}

// DebugFunc receives debug messages. The driver may invoke it synchronously
// from inside any GL call, so it must not call back into GL or block.
type DebugFunc func(DebugMessage)

const (
	DebugSourceAPI            = 0x8246
	DebugSourceWindowSystem   = 0x8247
	DebugSourceShaderCompiler = 0x8248
	DebugSourceThirdParty     = 0x8249
	DebugSourceApplication    = 0x824A
	DebugSourceOther          = 0x824B

	DebugTypeError              = 0x824C
	DebugTypeDeprecatedBehavior = 0x824D
	DebugTypeUndefinedBehavior  = 0x824E
	DebugTypePortability        = 0x824F
	DebugTypePerformance        = 0x8250
	DebugTypeOther              = 0x8251
	DebugTypeMarker             = 0x8268
	DebugTypePushGroup          = 0x8269
	DebugTypePopGroup           = 0x826A

	DebugSeverityHigh         = 0x9146
	DebugSeverityMedium       = 0x9147
	DebugSeverityLow          = 0x9148
	DebugSeverityNotification = 0x826B
)

var debugSourceNames = map[uint32]string{
	DebugSourceAPI:            "api",
	DebugSourceWindowSystem:   "window-system",
	DebugSourceShaderCompiler: "shader-compiler",
	DebugSourceThirdParty:     "third-party",
	DebugSourceApplication:    "application",
	DebugSourceOther:          "other",
}

var debugTypeNames = map[uint32]string{
	DebugTypeError:              "error",
	DebugTypeDeprecatedBehavior: "deprecated",
	DebugTypeUndefinedBehavior:  "undefined-behavior",
	DebugTypePortability:        "portability",
	DebugTypePerformance:        "performance",
	DebugTypeOther:              "other",
	DebugTypeMarker:             "marker",
	DebugTypePushGroup:          "push-group",
	DebugTypePopGroup:           "pop-group",
}

var debugSeverityNames = map[uint32]string{
	DebugSeverityHigh:         "high",
	DebugSeverityMedium:       "medium",
	DebugSeverityLow:          "low",
	DebugSeverityNotification: "notice",
}

func lookup(names map[uint32]string, v uint32) string {
	if name, ok := names[v]; ok {
		return name
	}
	return "unknown"
}

// SourceName returns a short lowercase name for m.Source.
func (m DebugMessage) SourceName() string { return lookup(debugSourceNames, m.Source) }

// TypeName returns a short lowercase name for m.Type.
func (m DebugMessage) TypeName() string { return lookup(debugTypeNames, m.Type) }

// SeverityName returns a short lowercase name for m.Severity.
func (m DebugMessage) SeverityName() string { return lookup(debugSeverityNames, m.Severity) }
