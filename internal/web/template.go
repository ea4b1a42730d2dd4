package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/lift-controller/internal/status"
)

var statusTmpl = template.Must(template.New("status").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onoff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(statusHTML))

const statusHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Lift Controller Status</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Lift Controller</h1>

<h2>Relays</h2>
<table>
<tr><th>Up</th><td id="relay-up" class="{{if .State.Relay.Up}}on{{else}}off{{end}}">{{onoff .State.Relay.Up}}</td></tr>
<tr><th>Stop</th><td id="relay-stop" class="{{if .State.Relay.Stop}}on{{else}}off{{end}}">{{onoff .State.Relay.Stop}}</td></tr>
<tr><th>Down</th><td id="relay-down" class="{{if .State.Relay.Down}}on{{else}}off{{end}}">{{onoff .State.Relay.Down}}</td></tr>
</table>

<h2>Limits</h2>
<table>
<tr><th>Top</th><td id="limit-top" class="{{if .State.Limit.Top}}on{{else}}off{{end}}">{{onoff .State.Limit.Top}}</td></tr>
<tr><th>Bottom</th><td id="limit-bottom" class="{{if .State.Limit.Bottom}}on{{else}}off{{end}}">{{onoff .State.Limit.Bottom}}</td></tr>
</table>

<h2>Commands</h2>
<table>
<tr><th>Last</th><td>{{if .LastCommand}}{{.LastCommand}} at {{.LastCommandAt.UTC.Format "2006-01-02T15:04:05Z"}}{{else}}none{{end}}</td></tr>
<tr><th>Up</th><td>{{.Counts.Up}}</td></tr>
<tr><th>Stop</th><td>{{.Counts.Stop}}</td></tr>
<tr><th>Down</th><td>{{.Counts.Down}}</td></tr>
<tr><th>Unknown</th><td>{{.Counts.Unknown}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Clients</th><td>{{.Clients}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{else}}<tr><th>MQTT</th><td>disabled</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
<tr><th>Static</th><td>{{.Config.StaticDir}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Chip}} {{.Config.Pins}}</td></tr>
</table>

<p><a href="/">Control</a> | <a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := statusTmpl.Execute(w, data); err != nil {
		log.Printf("web: render status: %v", err)
	}
}
