package service

import "fmt"

type phrases struct {
	Yes      string
	No       string
	NoAnswer string
	Found    string // printf format taking the listing count
}

var catalog = map[string]phrases{
	"nl": {"Ja", "Nee", "Sorry, ik heb geen antwoord kunnen genereren.", "%d panden gevonden"},
	"en": {"Yes", "No", "Sorry, I could not generate an answer.", "%d properties found"},
	"de": {"Ja", "Nein", "Entschuldigung, ich konnte keine Antwort erzeugen.", "%d Immobilien gefunden"},
	"es": {"Sí", "No", "Lo siento, no he podido generar una respuesta.", "%d propiedades encontradas"},
	"fr": {"Oui", "Non", "Désolé, je n'ai pas pu générer de réponse.", "%d biens trouvés"},
	"it": {"Sì", "No", "Spiacente, non sono riuscito a generare una risposta.", "%d immobili trovati"},
	"pt": {"Sim", "Não", "Desculpe, não consegui gerar uma resposta.", "%d imóveis encontrados"},
	"ru": {"Да", "Нет", "Извините, я не смог сформировать ответ.", "Найдено объектов: %d"},
	"no": {"Ja", "Nei", "Beklager, jeg kunne ikke lage et svar.", "%d eiendommer funnet"},
}

// phrasesFor falls back to Dutch, the assistant's home language
func phrasesFor(lang string) phrases {
	if p, ok := catalog[lang]; ok {
		return p
	}
	return catalog["nl"]
}

func yesNo(lang string, v bool) string {
	p := phrasesFor(lang)
	if v {
		return p.Yes
	}
	return p.No
}

func foundHeader(lang string, n int) string {
	return fmt.Sprintf(phrasesFor(lang).Found, n)
}
