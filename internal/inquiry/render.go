package inquiry

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

const none = "—"

type view struct {
	Name       string
	Email      string
	Phone      string
	Service    string
	Dimensions string
	Message    string
	Cart       []string
	CartTotal  string
	Attached   bool
}

func (v view) MessageLines() []string {
	return strings.Split(v.Message, "\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Да"
	}
	return "Не"
}

var funcs = map[string]any{"orNone": orNone, "yesNo": yesNo}

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).Parse(`
<h2>Ново запитване</h2>
<p><b>Име:</b> {{.Name}}</p>
<p><b>Имейл:</b> {{.Email}}</p>
<p><b>Телефон:</b> {{orNone .Phone}}</p>
<p><b>Услуга:</b> {{.Service}}</p>
<p><b>Размери:</b> {{orNone .Dimensions}}</p>
<p><b>Съобщение:</b><br/>{{range $i, $l := .MessageLines}}{{if $i}}<br/>{{end}}{{$l}}{{end}}</p>
{{- if .Cart}}
<p><b>Кошница:</b></p>
<ul>{{range .Cart}}<li>{{.}}</li>{{end}}</ul>
<p><b>Общо:</b> {{.CartTotal}}</p>
{{- end}}
<p><b>Прикачен файл:</b> {{yesNo .Attached}}</p>
`))

var textBody = texttemplate.Must(texttemplate.New("text").Funcs(funcs).Parse(`Ново запитване
Име: {{.Name}}
Имейл: {{.Email}}
Телефон: {{orNone .Phone}}
Услуга: {{.Service}}
Размери: {{orNone .Dimensions}}
Съобщение:
{{.Message}}
{{- if .Cart}}
Кошница:
{{range .Cart}}{{.}}
{{end}}Общо: {{.CartTotal}}
{{- end}}
Прикачен файл: {{yesNo .Attached}}
`))

func Subject(service string) string {
	return fmt.Sprintf("PH 3D-Laser — запитване (%s)", service)
}

func render(v view) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := htmlBody.Execute(&hb, v); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if err := textBody.Execute(&tb, v); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}
	return hb.String(), tb.String(), nil
}
