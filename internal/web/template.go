package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/emom-timer/internal/logic"
	"github.com/sweeney/emom-timer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
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
	"blinkClass": blinkClass,
}).Parse(indexHTML))

// blinkClass maps the warning cue to the CSS class of the countdown.
func blinkClass(b logic.BlinkState) string {
	switch b {
	case logic.BlinkWarnStart:
		return "warn-start"
	case logic.BlinkWarnEnd:
		return "warn-end"
	default:
		return "normal"
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>EMOM Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
#clock { font-size: 6em; text-align: center; margin: 0.2em 0; }
#round { font-size: 2em; text-align: center; }
.normal { color: #222; }
.warn-start { color: green; }
.warn-end { color: red; }
.controls { text-align: center; margin: 1em 0; }
.controls button { font-family: monospace; font-size: 1.1em; margin: 2px; padding: 6px 10px; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
</style>
</head>
<body>
<h1>EMOM Timer<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<div id="clock" class="{{blinkClass .View.Blink}}">{{.View.Current.Clock}}</div>
<div id="round">{{.View.Round}} / {{.View.Rounds}}</div>

<div class="controls">
<button data-cmd="start">Start</button>
<button data-cmd="stop">Stop</button>
<button data-cmd="reset">Reset</button>
</div>
<div class="controls">
<button data-cmd="decrement_minute">-1m</button>
<button data-cmd="decrement_quarter">-15s</button>
<button data-cmd="decrement_second">-1s</button>
<button data-cmd="increment_second">+1s</button>
<button data-cmd="increment_quarter">+15s</button>
<button data-cmd="increment_minute">+1m</button>
</div>
<div class="controls">
<button data-cmd="decrement_round">-1 round</button>
<button data-cmd="increment_round">+1 round</button>
</div>

<h2>Workout</h2>
<table>
<tr><th>Round time</th><td id="round-time">{{.View.RoundTime.Clock}}</td></tr>
<tr><th>Running</th><td id="running">{{if .View.Running}}yes{{else}}no{{end}}</td></tr>
<tr><th>Session</th><td id="session">{{.Session}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Config.Broker}}{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}}){{else}}disabled{{end}}</td></tr>
<tr><th>NATS</th><td class="{{if .NATSConnected}}connected{{else}}disconnected{{end}}">{{if .Config.NATSURL}}{{if .NATSConnected}}connected{{else}}disconnected{{end}} ({{.Config.NATSURL}}){{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Starts</th><td>{{.View.Counts.Starts}}</td></tr>
<tr><th>Stops</th><td>{{.View.Counts.Stops}}</td></tr>
<tr><th>Resets</th><td>{{.View.Counts.Resets}}</td></tr>
<tr><th>Rounds completed</th><td>{{.View.Counts.RoundsCompleted}}</td></tr>
<tr><th>Workouts finished</th><td>{{.View.Counts.Finished}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>GPIO</th><td>{{if .Config.GPIO}}enabled{{else}}disabled{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">Metrics</a></p>

<script>
(function() {
  var dot = document.getElementById("live-dot");
  var clock = document.getElementById("clock");
  var round = document.getElementById("round");
  var classes = { WARN_START: "warn-start", WARN_END: "warn-end" };
  var ws;

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function render(s) {
    var t = s.timer;
    clock.textContent = t.display;
    clock.className = classes[t.blink] || "normal";
    round.textContent = t.round + " / " + t.rounds;
    document.getElementById("round-time").textContent = t.round_time;
    document.getElementById("running").textContent = t.running ? "yes" : "no";
    document.getElementById("session").textContent = t.session || "";
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 2000);
    };
    ws.onmessage = function(e) {
      try {
        var msg = JSON.parse(e.data);
        if (msg.status) { render(msg.status); }
      } catch (err) {}
    };
  }

  document.querySelectorAll("button[data-cmd]").forEach(function(b) {
    b.addEventListener("click", function() {
      var cmd = b.getAttribute("data-cmd");
      if (ws && ws.readyState === WebSocket.OPEN) {
        ws.send(JSON.stringify({ command: cmd }));
      } else {
        fetch("/api/command/" + cmd, { method: "POST" });
      }
    });
  });

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
