package config

import (
	"os"
	"strings"
)

// Features holds the feature flags the review engine branches on. The flags
// are read from the environment exactly once at startup and handed to the
// services explicitly, so engine logic never touches process-wide state.
type Features struct {
	MultiStageReview bool
	Drafts           bool
	BlindReview      bool
}

// LoadFeatures reads the feature flags from the environment.
func LoadFeatures() Features {
	return Features{
		MultiStageReview: envBool("FEATURE_MULTI_STAGE_REVIEW"),
		Drafts:           envBool("FEATURE_DRAFTS"),
		BlindReview:      envBool("FEATURE_BLIND_REVIEW"),
	}
}

func envBool(key string) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return value == "1" || value == "true" || value == "yes"
}
