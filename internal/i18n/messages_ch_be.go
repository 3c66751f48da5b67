package i18n

// berneseGermanMessages contains all Bernese Swiss German (Bärndütsch) translations
var berneseGermanMessages = map[string]string{
	// Conversion replies
	"reply.converted.tidal":   "🎵 **TIDAL-Version:**\n%s",
	"reply.converted.spotify": "💚 **Spotify-Version:**\n%s",

	// Terminal outcomes without a conversion
	"reply.no_match":         "Ha das Lied uf %s nid gfunde.",
	"reply.source_not_found": "Dä Link zeigt uf keis Lied meh.",
	"reply.unavailable":      "Ha dr Streaming-Dienst grad nid chönne erreiche. Probier's spöter nomau.",

	// Bot status messages
	"bot.startup":  "🔗 Bi jetz online u wandle Spotify ↔ TIDAL Links i dere Gruppe um!",
	"bot.shutdown": "👋 Gah jetz offline. Links wo jetz teilt wärde, wärde nid umgwandlet.",
}
