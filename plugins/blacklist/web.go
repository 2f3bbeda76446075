package blacklist

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

func (p *BlacklistPlugin) registerWeb() {
	r := chi.NewRouter()
	r.HandleFunc("/", p.handleWeb)
	p.b.RegisterWebName(r, "/blacklist", "Blacklist")
}

var pageTpl = template.Must(template.New("blacklist").Parse(`
<!DOCTYPE html>
<html>
	<head>
		<title>Blacklist</title>
		<meta name="viewport" content="width=device-width, initial-scale=1">
	</head>
	<body>
		<h2>Blacklist ({{.Total}} words)</h2>
		<p>{{.Body}}</p>
		<p>
			{{if .Prev}}<a href="?page={{.Prev}}">previous</a>{{end}}
			page {{.Page}}/{{.Pages}}
			{{if .Next}}<a href="?page={{.Next}}">next</a>{{end}}
		</p>
	</body>
</html>
`))

func (p *BlacklistPlugin) handleWeb(w http.ResponseWriter, r *http.Request) {
	words := p.store.Words()
	pages := chunkWords(words, wordsPerPage)
	if len(pages) == 0 {
		pages = []string{"No words."}
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	if page > len(pages) {
		page = len(pages)
	}

	data := struct {
		Total, Page, Pages, Prev, Next int
		Body                           string
	}{
		Total: len(words),
		Page:  page,
		Pages: len(pages),
		Body:  pages[page-1],
	}
	if page > 1 {
		data.Prev = page - 1
	}
	if page < len(pages) {
		data.Next = page + 1
	}

	if err := pageTpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("could not render blacklist page")
	}
}
