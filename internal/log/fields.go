package log

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldSession    = "session_id"
	FieldFile       = "file"
	FieldFiles      = "files"
	FieldRows       = "rows"
	FieldExpenses   = "expenses"
	FieldRefunds    = "refunds"
	FieldCancelled  = "cancelled"
	FieldSelection  = "selection"
	FieldCategory   = "category"
	FieldFormat     = "format"
	FieldTotal      = "total"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLoader    = "loader"
	ComponentReconcile = "reconcile"
	ComponentStorage   = "storage"
	ComponentSession   = "session"
	ComponentExport    = "export"
	ComponentEvents    = "events"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentTemplate  = "template"
	ComponentConsole   = "console"
)

const (
	OpLoad      = "load"
	OpParse     = "parse"
	OpReconcile = "reconcile"
	OpAggregate = "aggregate"
	OpRender    = "render"
	OpExport    = "export"
	OpPublish   = "publish"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// LogFields is a small builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithSession(id string) LogFields {
	f[FieldSession] = id
	return f
}

// WithDataset adds the counts produced by a load.
func (f LogFields) WithDataset(files, rows, expenses, refunds, cancelled int) LogFields {
	f[FieldFiles] = files
	f[FieldRows] = rows
	f[FieldExpenses] = expenses
	f[FieldRefunds] = refunds
	f[FieldCancelled] = cancelled
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
