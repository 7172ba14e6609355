package dto

// RecordEventRequest is a log line pushed by an application
type RecordEventRequest struct {
	Level      string                 `json:"level" validate:"required,oneof=DEBUG INFO WARNING WARN ERROR CRITICAL FATAL debug info warning warn error critical fatal"`
	LoggerName string                 `json:"logger_name" validate:"required,max=100"`
	Message    string                 `json:"message" validate:"required"`
	Module     string                 `json:"module,omitempty" validate:"max=100"`
	UserID     *int64                 `json:"user_id,omitempty"`
	ExtraData  map[string]interface{} `json:"extra_data,omitempty"`
}

// RecordActivityRequest is a user action pushed by an application
type RecordActivityRequest struct {
	UserID       int64                  `json:"user_id" validate:"required,gt=0"`
	Action       string                 `json:"action" validate:"required,max=100"`
	ResourceType string                 `json:"resource_type,omitempty" validate:"max=50"`
	ResourceID   string                 `json:"resource_id,omitempty" validate:"max=100"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// RecordMetricRequest is a custom measurement pushed by an application
type RecordMetricRequest struct {
	Name     string                 `json:"metric_name" validate:"required,max=100"`
	Value    *float64               `json:"value" validate:"required"`
	Unit     string                 `json:"unit,omitempty" validate:"max=20"`
	Category string                 `json:"category,omitempty" validate:"max=50"`
	Source   string                 `json:"source,omitempty" validate:"max=100"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
