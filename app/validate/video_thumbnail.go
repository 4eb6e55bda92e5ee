package validate

import (
	"github.com/lysyi3m/anp-comb/app/ingest"
)

// VideoProfileLabel is the content profile that marks video card items.
const VideoProfileLabel = "VideoItem"

const missingThumbnailMessage = "The card cannot be published. The thumbnail image for video is missing."

// ProfileResolver resolves a content profile label to its id.
type ProfileResolver interface {
	GetProfileID(label string) (string, error)
}

var _ Rule = (*VideoThumbnailRule)(nil)

// VideoThumbnailRule blocks publishing of video card items whose primary
// media association is a video without a thumbnail, unless a manual
// thumbnail override is attached.
type VideoThumbnailRule struct {
	profiles ProfileResolver
}

func NewVideoThumbnailRule(profiles ProfileResolver) *VideoThumbnailRule {
	return &VideoThumbnailRule{profiles: profiles}
}

func (r *VideoThumbnailRule) Validate(item *ingest.Item) ([]string, error) {
	if item.Profile == "" {
		return nil, nil
	}

	videoProfileID, err := r.profiles.GetProfileID(VideoProfileLabel)
	if err != nil {
		return nil, err
	}

	if videoProfileID != "" && videoProfileID != item.Profile {
		return nil, nil
	}

	featuremedia := item.Associations["featuremedia"]
	if featuremedia == nil {
		return nil, nil
	}

	// A thumbnail rendition entry counts even before its href is filled in.
	_, hasThumbnail := featuremedia.Renditions["thumbnail"]

	if featuremedia.Type == ingest.ItemTypeVideo && !hasThumbnail &&
		item.Associations["VideoThumbnail"] == nil {
		return []string{missingThumbnailMessage}, nil
	}

	return nil, nil
}
