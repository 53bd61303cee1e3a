// Package i18n holds the UI dictionaries shipped to clients inside the
// sync packet. Clients render server-driven strings only, so adding a
// language here needs no client release.
package i18n

// Dict is a flat key to display-string dictionary for one language.
type Dict map[string]string

const DefaultLang = "fr"

// Lookup returns the dictionary for lang, falling back to French.
func Lookup(lang string) Dict {
	if d, ok := translations[lang]; ok {
		return d
	}
	return translations[DefaultLang]
}

var translations = map[string]Dict{
	"fr": {
		"CONN_WELCOME_TITLE":     "Bienvenue !",
		"CONN_NOT_STARTED_MSG":   "Le spectacle va bientôt commencer. Préparez-vous, les connexions ouvriront d'un instant à l'autre !",
		"CONN_JOIN_TITLE":        "Rejoindre le spectacle",
		"CONN_INPUT_PLACEHOLDER": "Votre Nom, équipe ou n° de table",
		"CONN_BTN_JOIN":          "Rejoindre",
		"CONN_PENDING_TITLE":     "Demande envoyée !",
		"CONN_PENDING_MSG":       "Merci de patienter, une personne va valider votre entrée d'un instant à l'autre...",
		"CONN_DONT_REFRESH":      "Ne rafraîchissez pas la page.",

		"PROPOSAL_TITLE_SINGLE":      "Ma proposition",
		"PROPOSAL_TITLE_PLURAL":      "Mes propositions : {{count}} / {{max}}",
		"PROPOSAL_INPUT_PLACEHOLDER": "Entrez votre proposition...",
		"PROPOSAL_LIMIT_MSG":         "Seulement {{max}} proposition(s) autorisée(s)",
		"PROPOSAL_SEND":              "Envoyer",
		"PROPOSAL_EMPTY_HISTORY":     "Vous n'avez pas encore envoyé de proposition.",
		"PROPOSAL_WINNER_ICON":       "🏆",

		"WAITING_DEFAULT_TITLE": "Attente du prochain jeu...",
		"WAITING_SUBTITLE":      "Regardez l'écran de scène !",
		"WAITING_FOR_START":     "Connecté ! Attente du début...",

		"CONNECTION_LOST":           "Connexion perdue",
		"RECONNECTING":              "Tentative de reconnexion...",
		"ERROR_NAME_TAKEN":          "Ce nom est déjà utilisé.",
		"ERROR_SESSION_EXPIRED":     "Session expirée.",
		"ERROR_JOINS_CLOSED":        "Les inscriptions sont fermées.",
		"ERROR_SHOW_NOT_STARTED":    "Le spectacle n'est pas encore ouvert au public.",
		"SHOW_NOT_STARTED":          "Spectacle en attente...",
		"ERROR_INVALID_CREDENTIALS": "Identifiants invalides.",
	},
	"en": {
		"CONN_WELCOME_TITLE":     "Welcome!",
		"CONN_NOT_STARTED_MSG":   "The show is about to begin. Get ready, connections will open any moment now!",
		"CONN_JOIN_TITLE":        "Join the show",
		"CONN_INPUT_PLACEHOLDER": "Your name, team or table number",
		"CONN_BTN_JOIN":          "Join",
		"CONN_PENDING_TITLE":     "Request sent!",
		"CONN_PENDING_MSG":       "Please wait, someone will approve your entry any moment now...",
		"CONN_DONT_REFRESH":      "Do not refresh the page.",

		"PROPOSAL_TITLE_SINGLE":      "My proposal",
		"PROPOSAL_TITLE_PLURAL":      "My proposals: {{count}} / {{max}}",
		"PROPOSAL_INPUT_PLACEHOLDER": "Type your proposal...",
		"PROPOSAL_LIMIT_MSG":         "Only {{max}} proposal(s) allowed",
		"PROPOSAL_SEND":              "Send",
		"PROPOSAL_EMPTY_HISTORY":     "You have not sent any proposal yet.",
		"PROPOSAL_WINNER_ICON":       "🏆",

		"WAITING_DEFAULT_TITLE": "Waiting for the next game...",
		"WAITING_SUBTITLE":      "Watch the stage screen!",
		"WAITING_FOR_START":     "Connected! Waiting for the start...",

		"CONNECTION_LOST":           "Connection lost",
		"RECONNECTING":              "Trying to reconnect...",
		"ERROR_NAME_TAKEN":          "This name is already taken.",
		"ERROR_SESSION_EXPIRED":     "Session expired.",
		"ERROR_JOINS_CLOSED":        "Joins are closed.",
		"ERROR_SHOW_NOT_STARTED":    "The show is not open to the public yet.",
		"SHOW_NOT_STARTED":          "Show starting soon...",
		"ERROR_INVALID_CREDENTIALS": "Invalid credentials.",
	},
}
