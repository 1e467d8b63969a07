package message

import "embed"

// templatesFS embeds the default message texts.
//
//go:embed templates/*.txt
var templatesFS embed.FS

func mustTemplate(name string) string {
	data, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
