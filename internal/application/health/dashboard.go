package health

import (
	"bytes"
	"html/template"
	"sort"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Car Market API · Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="30">
  <style>
    body { background: #f6f7f9; color: #1f2933; font-family: system-ui, sans-serif; margin: 0; padding: 40px 20px; }
    .container { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; margin: 0 0 8px; }
    h1.issue { color: #b91c1c; }
    h1.degraded { color: #b45309; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; margin-top: 24px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 30px rgba(0,0,0,0.05); }
    .label { text-transform: uppercase; font-size: 11px; letter-spacing: 2px; color: #94a3b8; margin-bottom: 16px; }
    .big { font-size: 32px; font-weight: 800; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; border-bottom: 1px solid #f1f5f9; }
    .ok { color: #047857; }
    .err { color: #dc2626; }
    footer { margin-top: 24px; font-family: monospace; font-size: 13px; color: #64748b; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="container">
    {{if eq .Status "ok"}}<h1>All Systems Operational</h1>{{else if eq .Status "degraded"}}<h1 class="degraded">Degraded Performance</h1>{{else}}<h1 class="issue">System Issues Detected</h1>{{end}}
    <p>Listings API, dependencies and listing event pipeline.</p>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span class="ok">{{.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span class="err">{{.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success Rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg Latency</span><span>{{.Traffic.AvgResponseTime}}ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">{{.Runtime.UptimeSeconds}}s</div>
        <div class="row"><span>Heap Used</span><span>{{.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Runtime.Goroutines}}</span></div>
        <div class="row"><span>Go</span><span>{{.Runtime.GoVersion}}</span></div>
        {{with .Events}}
        <div class="row"><span>Events delivered</span><span class="ok">{{.Delivered}}</span></div>
        <div class="row"><span>Events failed</span><span class="err">{{.Failed}}</span></div>
        <div class="row"><span>Events dropped</span><span class="err">{{.Dropped}}</span></div>
        {{end}}
      </div>
      <div class="card">
        <div class="label">Connectivity</div>
        {{range .Deps}}
        <div class="row"><span>{{.Name}}</span><span class="{{if eq .Status "connected"}}ok{{else}}err{{end}}">{{.Status}}</span></div>
        {{end}}
      </div>
    </div>
    {{with .LastRequest}}<footer>LAST INBOUND {{index . "method"}} {{index . "path"}} {{index . "ip"}}</footer>{{end}}
  </div>
</body>
</html>`))

type namedDep struct {
	Name   string
	Status string
}

// RenderDashboardHTML returns the HTML for GET /.
func RenderDashboardHTML(health CollectResult) (string, error) {
	deps := make([]namedDep, 0, len(health.Dependencies))
	for name, d := range health.Dependencies {
		deps = append(deps, namedDep{Name: name, Status: d.Status})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	data := struct {
		CollectResult
		Deps        []namedDep
		LastRequest map[string]interface{}
	}{CollectResult: health, Deps: deps}
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		data.LastRequest = m
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
