package html

// RunReportTemplate renders one batch run: totals, one card per entry with
// its declared inputs and generated files, rejected entries and findings
const RunReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Route Forge Run - {{.Date}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 32px 20px;
            margin-bottom: 24px;
            border-radius: 8px;
        }
        header h1 { font-size: 2.2em; margin-bottom: 6px; }
        header p { opacity: 0.9; font-family: 'Courier New', monospace; }
        .panel {
            background: white;
            padding: 20px;
            border-radius: 8px;
            margin-bottom: 24px;
            box-shadow: 0 2px 4px rgba(0, 0, 0, 0.05);
        }
        .panel h2 { color: #667eea; margin-bottom: 12px; font-size: 1.4em; }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 12px; }
        .stat-card { background: #f8f9fa; padding: 12px; border-radius: 6px; border-left: 4px solid #667eea; }
        .stat-card.bad { border-left-color: #f93e3e; }
        .stat-card .label { font-size: 0.9em; color: #6c757d; }
        .stat-card .value { font-size: 1.6em; font-weight: bold; }
        .entry { background: white; margin-bottom: 16px; border-radius: 8px; overflow: hidden; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.05); }
        .entry-header { padding: 16px 20px; background: #f8f9fa; border-bottom: 1px solid #e9ecef; }
        .entry-title { display: flex; align-items: center; gap: 12px; }
        .entry-path { font-size: 1.2em; font-weight: 600; font-family: 'Courier New', monospace; }
        .entry-body { padding: 16px 20px; }
        .method-badge { padding: 4px 10px; border-radius: 4px; font-weight: bold; font-size: 0.85em; color: white; }
        .method-get { background: #61affe; }
        .method-post { background: #49cc90; }
        .method-put { background: #fca130; }
        .method-delete { background: #f93e3e; }
        .method-patch { background: #50e3c2; }
        .method-default { background: #6c757d; }
        .status-ok { color: #2e7d32; font-weight: 600; }
        .status-failed { color: #d32f2f; font-weight: 600; }
        .error { color: #d32f2f; font-family: 'Courier New', monospace; white-space: pre-wrap; margin-top: 8px; }
        .note { color: #8a6d3b; margin-top: 6px; }
        .section-title { font-weight: 600; color: #495057; margin: 12px 0 8px; border-bottom: 2px solid #e9ecef; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 12px; }
        th { background: #f8f9fa; padding: 8px; text-align: left; border-bottom: 2px solid #dee2e6; }
        td { padding: 8px; border-bottom: 1px solid #e9ecef; }
        .mono { font-family: 'Courier New', monospace; }
        .suggestion { color: #757575; font-style: italic; }
        footer { text-align: center; padding: 24px; color: #6c757d; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Route Forge Run Report</h1>
            <p>{{.Date}} · run {{.RunID}} · {{.SpecFile}}</p>
        </header>

        <div class="panel">
            <h2>Overview</h2>
            <div class="stats">
                <div class="stat-card"><div class="label">Loaded</div><div class="value">{{.Loaded}}</div></div>
                <div class="stat-card{{if .Rejected}} bad{{end}}"><div class="label">Rejected</div><div class="value">{{.Rejected}}</div></div>
                <div class="stat-card"><div class="label">Succeeded</div><div class="value">{{.Succeeded}}</div></div>
                <div class="stat-card{{if .Failed}} bad{{end}}"><div class="label">Failed</div><div class="value">{{.Failed}}</div></div>
                <div class="stat-card"><div class="label">Files Written</div><div class="value">{{.Artifacts}}</div></div>
            </div>
        </div>

        {{range .Entries}}
        <div class="entry">
            <div class="entry-header">
                <div class="entry-title">
                    <span class="method-badge {{methodColor .Method}}">{{methodBadge .Method}}</span>
                    <span class="entry-path">{{.Path}}</span>
                    <span class="{{if .OK}}status-ok{{else}}status-failed{{end}}">{{.Status}}</span>
                </div>
                <div>Entry {{.Index}} · {{.State}} · {{.Duration}}</div>
                {{if .Description}}<div>{{.Description}}</div>{{end}}
                {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
                {{range .Notes}}<div class="note">{{.}}</div>{{end}}
            </div>
            <div class="entry-body">
                {{if .Inputs}}
                <div class="section-title">Declared Input</div>
                <table>
                    <thead><tr><th>Name</th><th>Type</th><th>Description</th></tr></thead>
                    <tbody>
                    {{range .Inputs}}<tr><td class="mono">{{.Name}}</td><td class="mono">{{.Type}}</td><td>{{.Description}}</td></tr>{{end}}
                    </tbody>
                </table>
                {{end}}
                {{if .Files}}
                <div class="section-title">Generated Files</div>
                <table>
                    <thead><tr><th>Kind</th><th>File</th><th>Lines</th></tr></thead>
                    <tbody>
                    {{range .Files}}<tr><td>{{.Kind}}</td><td class="mono">{{.Path}}</td><td>{{.Lines}}</td></tr>{{end}}
                    </tbody>
                </table>
                {{end}}
            </div>
        </div>
        {{else}}
        <div class="panel"><h2>No entries were processed</h2></div>
        {{end}}

        {{if .Issues}}
        <div class="panel">
            <h2>Rejected Entries</h2>
            <table>
                <thead><tr><th>Entry</th><th>Path</th><th>Issue</th></tr></thead>
                <tbody>
                {{range .Issues}}<tr><td>{{.Index}}</td><td class="mono">{{.Path}}</td><td>{{.Message}}</td></tr>{{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .Findings}}
        <div class="panel">
            <h2>Review Findings</h2>
            <table>
                <thead><tr><th>File</th><th>Kind</th><th>Message</th></tr></thead>
                <tbody>
                {{range .Findings}}<tr{{if eq .Severity "suggestion"}} class="suggestion"{{end}}><td class="mono">{{.File}}</td><td>{{.Kind}}</td><td>{{.Message}}</td></tr>{{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <footer>
            <p>Generated by <strong>Route Forge</strong></p>
        </footer>
    </div>
</body>
</html>
`
