package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldTransactionID = "transaction_id"
	FieldKind          = "kind"
	FieldMonth         = "month"
	FieldItemID        = "item_id"
	FieldEventType     = "event_type"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBudget    = "budget"
	ComponentItems     = "items"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations
const (
	OpCreate   = "create"
	OpList     = "list"
	OpDelete   = "delete"
	OpEdit     = "edit"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields is an ordered builder of key-value pairs for slog.
type Fields []any

// NewFields creates an empty builder.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) add(k string, v any) Fields {
	return append(f, k, v)
}

func (f Fields) WithRequestID(id string) Fields { return f.add(FieldRequestID, id) }
func (f Fields) WithClientIP(ip string) Fields  { return f.add(FieldClientIP, ip) }
func (f Fields) WithOperation(op string) Fields { return f.add(FieldOperation, op) }

// WithError adds the error message; nil errors add nothing.
func (f Fields) WithError(err error) Fields {
	if err == nil {
		return f
	}
	return f.add(FieldError, err.Error())
}

// WithHTTP adds the request line and the outcome.
func (f Fields) WithHTTP(method, path string, status int, durationMs int64) Fields {
	return f.add(FieldMethod, method).
		add(FieldPath, path).
		add(FieldStatusCode, status).
		add(FieldDuration, durationMs)
}

// WithTransaction adds ledger transaction identity.
func (f Fields) WithTransaction(id, kind, month string) Fields {
	return f.add(FieldTransactionID, id).add(FieldKind, kind).add(FieldMonth, month)
}

// Args returns the pairs for a slog call.
func (f Fields) Args() []any {
	return []any(f)
}
