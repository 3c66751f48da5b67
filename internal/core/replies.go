package core

import (
	"trackbridge/internal/i18n"
)

// ReplyFormatter renders resolution results as chat replies.
type ReplyFormatter struct {
	localizer *i18n.Localizer
}

func NewReplyFormatter(language string) *ReplyFormatter {
	if language == "" {
		language = i18n.DefaultLanguage
	}
	return &ReplyFormatter{
		localizer: i18n.NewLocalizer(language),
	}
}

// Format returns the reply text for a result and whether a reply should be
// sent at all.
func (f *ReplyFormatter) Format(result ResolutionResult) (string, bool) {
	switch result.Status {
	case StatusMatched:
		key := "reply.converted.spotify"
		if result.Target != nil && result.Target.ID.Provider == ProviderTidal {
			key = "reply.converted.tidal"
		}
		return f.localizer.T(key, result.Target.URL), true

	case StatusNoMatch:
		return f.localizer.T("reply.no_match", string(result.Request.Target)), true

	case StatusSourceNotFound:
		return f.localizer.T("reply.source_not_found"), true

	case StatusTransientError:
		return f.localizer.T("reply.unavailable"), true

	default:
		return "", false
	}
}
