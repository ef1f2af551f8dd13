package jobserver

import (
	"html/template"
	"net/http"
	"strconv"
	"time"
)

// Templates are parsed once from inline strings rather than external
// files, keeping the UI self-contained in the binary.
var (
	jobListTmpl   = template.Must(template.New("jobList").Parse(jobListHTML))
	jobDetailTmpl = template.Must(template.New("jobDetail").Parse(jobDetailHTML))
	createTmpl    = template.Must(template.New("create").Parse(createJobHTML))
)

type jobListItem struct {
	ID              string
	State           string
	ScenePath       string
	Width, Height   int
	AAPasses        int
	PassesCompleted int
	StartTime       time.Time
	EndTime         *time.Time
	Error           string
}

type jobDetailView struct {
	jobListItem
	DirtyPixels int
	Threshold   float64
	ElapsedSec  float64
}

// handleIndex handles GET / — the job list page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	jobs := s.jobs.ListJobs()
	items := make([]jobListItem, len(jobs))
	for i, j := range jobs {
		items[i] = toListItem(j)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := jobListTmpl.Execute(w, items); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// handleJobPage handles GET /jobs/:id — the job detail page.
func (s *Server) handleJobPage(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Path[len("/jobs/"):]
	job, ok := s.jobs.GetJob(jobID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		jobDetailTmpl.Execute(w, jobDetailView{jobListItem: jobListItem{ID: jobID, State: "unknown"}})
		return
	}

	var elapsed float64
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime).Seconds()
	} else {
		elapsed = time.Since(job.StartTime).Seconds()
	}

	view := jobDetailView{
		jobListItem: toListItem(job),
		DirtyPixels: job.DirtyPixels,
		Threshold:   job.Threshold,
		ElapsedSec:  elapsed,
	}
	if err := jobDetailTmpl.Execute(w, view); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// handleCreatePage handles GET/POST /create — the job creation form.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		createTmpl.Execute(w, "")
	case http.MethodPost:
		s.handleCreatePagePost(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreatePagePost(w http.ResponseWriter, r *http.Request) {
	fail := func(msg string) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		createTmpl.Execute(w, msg)
	}

	if err := r.ParseForm(); err != nil {
		fail("failed to parse form data")
		return
	}

	scenePath := r.FormValue("scenePath")
	if scenePath == "" {
		fail("scenePath is required")
		return
	}
	width, err := strconv.Atoi(r.FormValue("width"))
	if err != nil || width <= 0 {
		fail("width must be a positive integer")
		return
	}
	height, err := strconv.Atoi(r.FormValue("height"))
	if err != nil || height <= 0 {
		fail("height must be a positive integer")
		return
	}
	aaPasses, err := strconv.Atoi(r.FormValue("aaPasses"))
	if err != nil || aaPasses <= 0 {
		fail("aaPasses must be a positive integer")
		return
	}
	samplesPerPass, err := strconv.Atoi(r.FormValue("samplesPerPass"))
	if err != nil || samplesPerPass <= 0 {
		fail("samplesPerPass must be a positive integer")
		return
	}
	seed, err := strconv.ParseInt(r.FormValue("seed"), 10, 64)
	if err != nil {
		seed = 0
	}

	config := JobConfig{
		ScenePath:      scenePath,
		Width:          width,
		Height:         height,
		AAPasses:       aaPasses,
		SamplesPerPass: samplesPerPass,
		Adaptive:       r.FormValue("adaptive") == "on",
		Seed:           seed,
	}

	job := s.jobs.CreateJob(config)
	go runRender(s.ctx, s.jobs, s.checkpoints, s.films, s.traceDir, s.loadScene, job.ID)

	http.Redirect(w, r, "/jobs/"+job.ID, http.StatusSeeOther)
}

func toListItem(j *Job) jobListItem {
	return jobListItem{
		ID:              j.ID,
		State:           string(j.State),
		ScenePath:       j.Config.ScenePath,
		Width:           j.Config.Width,
		Height:          j.Config.Height,
		AAPasses:        j.Config.AAPasses,
		PassesCompleted: j.PassesCompleted,
		StartTime:       j.StartTime,
		EndTime:         j.EndTime,
		Error:           j.Error,
	}
}

const jobListHTML = `<!DOCTYPE html>
<html><head><title>lumenforge — jobs</title></head>
<body>
<h1>Render jobs</h1>
<p><a href="/create">new job</a></p>
<table border="1" cellpadding="4">
<tr><th>ID</th><th>State</th><th>Scene</th><th>Size</th><th>Pass</th></tr>
{{range .}}
<tr>
<td><a href="/jobs/{{.ID}}">{{.ID}}</a></td>
<td>{{.State}}</td>
<td>{{.ScenePath}}</td>
<td>{{.Width}}x{{.Height}}</td>
<td>{{.PassesCompleted}}/{{.AAPasses}}</td>
</tr>
{{end}}
</table>
</body></html>`

const jobDetailHTML = `<!DOCTYPE html>
<html><head><title>lumenforge — job {{.ID}}</title></head>
<body>
<h1>Job {{.ID}}</h1>
<p>State: {{.State}}</p>
<p>Scene: {{.ScenePath}} ({{.Width}}x{{.Height}})</p>
<p>Pass: {{.PassesCompleted}}/{{.AAPasses}}</p>
<p>Dirty pixels: {{.DirtyPixels}}, threshold: {{.Threshold}}</p>
<p>Elapsed: {{.ElapsedSec}}s</p>
{{if .Error}}<p style="color:red">Error: {{.Error}}</p>{{end}}
<p><a href="/api/v1/jobs/{{.ID}}/stream">progress stream</a></p>
</body></html>`

const createJobHTML = `<!DOCTYPE html>
<html><head><title>lumenforge — new job</title></head>
<body>
<h1>New render job</h1>
{{if .}}<p style="color:red">{{.}}</p>{{end}}
<form method="post" action="/create">
<label>Scene path <input name="scenePath"></label><br>
<label>Width <input name="width" value="512"></label><br>
<label>Height <input name="height" value="384"></label><br>
<label>AA passes <input name="aaPasses" value="8"></label><br>
<label>Samples per pass <input name="samplesPerPass" value="4"></label><br>
<label>Adaptive <input type="checkbox" name="adaptive"></label><br>
<label>Seed <input name="seed" value="0"></label><br>
<button type="submit">Start</button>
</form>
</body></html>`
