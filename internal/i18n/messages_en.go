package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Conversion replies
	"reply.converted.tidal":   "🎵 **TIDAL Conversion:**\n%s",
	"reply.converted.spotify": "💚 **Spotify Conversion:**\n%s",

	// Terminal outcomes without a conversion
	"reply.no_match":         "Couldn't find this track on %s.",
	"reply.source_not_found": "That link doesn't point to a track anymore.",
	"reply.unavailable":      "Couldn't reach the streaming service right now. Please try again later.",

	// Bot status messages
	"bot.startup":  "🔗 I am now online and will convert Spotify ↔ TIDAL links in this group!",
	"bot.shutdown": "👋 Going offline. Links shared now won't be converted.",
}
