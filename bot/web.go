package bot

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"
)

type EndPoint struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// GetWebNavigation returns the list of registered plugin pages plus any
// extra links configured under bot.links
func (b *bot) GetWebNavigation() []EndPoint {
	endpoints := b.httpEndPoints
	moreEndpoints := b.config.GetArray("bot.links", []string{})
	for _, e := range moreEndpoints {
		link := strings.SplitN(e, ":", 2)
		if len(link) != 2 {
			continue
		}
		endpoints = append(endpoints, EndPoint{link[0], link[1]})
	}
	return endpoints
}

func (b *bot) setupHTTP() {
	b.router = chi.NewRouter()

	reqCount := b.config.GetInt("bot.httprate.requests", 500)
	reqTime := time.Duration(b.config.GetInt("bot.httprate.seconds", 5))
	if reqCount > 0 && reqTime > 0 {
		b.router.Use(httprate.LimitByIP(reqCount, reqTime*time.Second))
	}

	b.router.Use(middleware.RequestID)
	b.router.Use(middleware.Recoverer)
	b.router.Use(middleware.StripSlashes)

	b.router.HandleFunc("/", b.serveRoot)
	b.router.HandleFunc("/nav", b.serveNav)
}

func (b *bot) RegisterWeb(r http.Handler, root string) {
	b.router.Mount(root, r)
}

func (b *bot) RegisterWebName(r http.Handler, root, name string) {
	b.httpEndPoints = append(b.httpEndPoints, EndPoint{name, root})
	b.router.Mount(root, r)
}

func (b *bot) ListenAndServe(addr string) {
	log.Debug().Msgf("starting web service at %s", addr)
	log.Fatal().Err(http.ListenAndServe(addr, b.router)).Msg("bot killed")
}

func (b *bot) serveNav(w http.ResponseWriter, r *http.Request) {
	enc := json.NewEncoder(w)
	err := enc.Encode(b.GetWebNavigation())
	if err != nil {
		jsonErr, _ := json.Marshal(err)
		w.WriteHeader(500)
		w.Write(jsonErr)
	}
}

var rootIndex = template.Must(template.New("rootIndex").Parse(`
<!DOCTYPE html>
<html>
	<head>
		<title>{{.Name}}</title>
		<meta name="viewport" content="width=device-width, initial-scale=1">
	</head>
	<body>
	{{if .EndPoints}}
		<table>
			<thead>
				<tr><th>Plugin</th></tr>
			</thead>
			<tbody>
				{{range .EndPoints}}
				<tr><td><a href="{{.URL}}">{{.Name}}</a></td></tr>
				{{end}}
			</tbody>
		</table>
	{{end}}
	</body>
</html>
`))

func (b *bot) serveRoot(w http.ResponseWriter, r *http.Request) {
	context := struct {
		Name      string
		EndPoints []EndPoint
	}{
		b.config.Get("nick", "warden"),
		b.GetWebNavigation(),
	}
	if err := rootIndex.Execute(w, context); err != nil {
		log.Error().Err(err).Msg("could not serve index")
	}
}
