package services

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
)

type alertTemplate struct {
	Heading string
	Color   string
	Details string
	Action  string
	Footer  string
}

var alertTemplates = map[string]alertTemplate{
	alert.TypeError: {
		Heading: "System Error Alert",
		Color:   "#e74c3c",
		Details: "Additional details",
		Action:  "Please review the system and take appropriate action.",
		Footer:  "OpsGuard - automatic alerts",
	},
	alert.TypePerformance: {
		Heading: "System Performance Alert",
		Color:   "#f39c12",
		Details: "Performance metrics",
		Action:  "Please review system performance and take the necessary steps to improve it.",
		Footer:  "OpsGuard - performance monitoring",
	},
	alert.TypeSecurity: {
		Heading: "Urgent Security Alert",
		Color:   "#dc3545",
		Details: "Security event details",
		Action:  "Please review this security alert immediately and take steps to protect the system.",
		Footer:  "OpsGuard - security monitoring",
	},
	alert.TypeHealthCheck: {
		Heading: "System Health Check Alert",
		Color:   "#17a2b8",
		Details: "Check details",
		Action:  "Please review system health and take action if required.",
		Footer:  "OpsGuard - health monitoring",
	},
}

var alertEmailTemplate = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
.container { max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden; }
.header { background: {{.Template.Color}}; color: white; padding: 20px; text-align: center; }
.content { padding: 20px; }
.alert-info { background: #f8f9fa; border-left: 4px solid {{.Template.Color}}; padding: 15px; margin: 15px 0; }
.footer { background: #f8f9fa; padding: 15px; text-align: center; font-size: 12px; color: #666; }
.timestamp { color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h2>{{.Template.Heading}}</h2></div>
<div class="content">
<div class="alert-info">
<h3>{{.Alert.Title}}</h3>
<p><strong>Message:</strong> {{.Alert.Message}}</p>
<p><strong>Type:</strong> {{.Alert.Type}}</p>
<p><strong>Severity:</strong> {{.Alert.Severity}}</p>
<p class="timestamp"><strong>Time:</strong> {{.CreatedAt}}</p>
</div>
{{if .Fields}}<h4>{{.Template.Details}}:</h4>
<ul>
{{range .Fields}}<li><strong>{{.Key}}:</strong> {{.Value}}</li>
{{end}}</ul>{{end}}
<p>{{.Template.Action}}</p>
</div>
<div class="footer">{{.Template.Footer}}</div>
</div>
</body>
</html>
`))

type alertField struct {
	Key   string
	Value string
}

// renderAlertEmail renders the HTML body for an alert, falling back to the error template
func renderAlertEmail(a *alert.Alert) (string, error) {
	tmpl, ok := alertTemplates[a.Type]
	if !ok {
		tmpl = alertTemplates[alert.TypeError]
	}

	fields := sourceFields(a.SourceData)
	list := make([]alertField, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		list = append(list, alertField{Key: k, Value: fields[k]})
	}

	var buf bytes.Buffer
	err := alertEmailTemplate.Execute(&buf, map[string]interface{}{
		"Alert":     a,
		"Template":  tmpl,
		"Fields":    list,
		"CreatedAt": a.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// alertSubject is "[SEVERITY] title"
func alertSubject(a *alert.Alert) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(a.Severity), a.Title)
}

// sourceFields flattens source data into printable key/value pairs
func sourceFields(data map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(data))
	for k, v := range data {
		fields[k] = fmt.Sprintf("%v", v)
	}
	return fields
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
