package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/cupnotifier/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Snapshot is the document returned by Cup's /api/v3/json endpoint
type Snapshot struct {
	Images      []*Image `json:"images"`
	LastUpdated string   `json:"last_updated"`
	Metrics     Metrics  `json:"metrics"`
}

// Metrics summarizes the state of all images known to Cup
type Metrics struct {
	MajorUpdates     int `json:"major_updates"`
	MinorUpdates     int `json:"minor_updates"`
	MonitoredImages  int `json:"monitored_images"`
	OtherUpdates     int `json:"other_updates"`
	PatchUpdates     int `json:"patch_updates"`
	Unknown          int `json:"unknown"`
	UpToDate         int `json:"up_to_date"`
	UpdatesAvailable int `json:"updates_available"`
}

// Image is one monitored container image
type Image struct {
	InUse     bool        `json:"in_use"`
	Parts     ImageParts  `json:"parts"`
	Reference string      `json:"reference"`
	Result    ImageResult `json:"result"`
	Server    *string     `json:"server"`
	Time      int64       `json:"time"`
	URL       *string     `json:"url"`
}

// ImageParts is the parsed image reference
type ImageParts struct {
	Registry   string `json:"registry"`
	Repository string `json:"repository"`
	Tag        string `json:"tag"`
}

// Identity returns the stable name of the image, i.e. its repository path
func (x *Image) Identity() string {
	return x.Parts.Repository
}

// IconName returns the last path segment of the identity. It is used to
// build thumbnail URLs.
func (x *Image) IconName() string {
	repo := x.Identity()
	if idx := strings.LastIndex(repo, "/"); idx >= 0 {
		return repo[idx+1:]
	}
	return repo
}

// NeedsNotification reports whether the image is in use and has an update
func (x *Image) NeedsNotification() bool {
	return x.InUse && x.Result.HasUpdate
}

// IdentityKey derives the key used for deduplication. Version updates are
// keyed by the new version, digest updates by the new remote digest.
func (x *Image) IdentityKey() (IdentityKey, error) {
	switch info := x.Result.Info.(type) {
	case *VersionUpdate:
		return IdentityKey{Identity: x.Identity(), NewValue: info.NewVersion}, nil
	case *DigestUpdate:
		return IdentityKey{Identity: x.Identity(), NewValue: info.RemoteDigest}, nil
	default:
		return IdentityKey{}, goerr.New("image has no update info",
			goerr.V("reference", x.Reference),
			goerr.V("repository", x.Identity()),
			goerr.T(types.ErrTagSourceData),
		)
	}
}

// IdentityKey identifies one announcement. Two updates are the same
// announcement iff their keys are equal.
type IdentityKey struct {
	Identity string `json:"identity"`
	NewValue string `json:"new_value"`
}

func (k IdentityKey) String() string {
	return k.Identity + "@" + k.NewValue
}

// ImageResult is the update check result of an image
type ImageResult struct {
	HasUpdate bool
	Info      UpdateInfo
	Error     *string
}

// UpdateInfo is either *VersionUpdate or *DigestUpdate
type UpdateInfo interface {
	updateInfo()
}

// UpdateType is the discriminator of UpdateInfo in Cup's JSON
type UpdateType string

const (
	UpdateTypeVersion UpdateType = "version"
	UpdateTypeDigest  UpdateType = "digest"
)

// VersionUpdate means a newer semantic version tag is available
type VersionUpdate struct {
	CurrentVersion    string `json:"current_version"`
	NewTag            string `json:"new_tag"`
	NewVersion        string `json:"new_version"`
	VersionUpdateType string `json:"version_update_type"`
}

func (*VersionUpdate) updateInfo() {}

// DigestUpdate means the tag now points to a different digest
type DigestUpdate struct {
	LocalDigests []string `json:"local_digests"`
	RemoteDigest string   `json:"remote_digest"`
}

func (*DigestUpdate) updateInfo() {}

func (x *ImageResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		HasUpdate bool            `json:"has_update"`
		Info      json.RawMessage `json:"info"`
		Error     *string         `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	info, err := decodeUpdateInfo(raw.Info)
	if err != nil {
		return err
	}

	x.HasUpdate = raw.HasUpdate
	x.Info = info
	x.Error = raw.Error
	return nil
}

func decodeUpdateInfo(data json.RawMessage) (UpdateInfo, error) {
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	var head struct {
		Type UpdateType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, goerr.Wrap(err, "failed to decode update info", goerr.T(types.ErrTagSourceData))
	}

	switch head.Type {
	case UpdateTypeVersion:
		var v VersionUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, goerr.Wrap(err, "failed to decode version update", goerr.T(types.ErrTagSourceData))
		}
		return &v, nil

	case UpdateTypeDigest:
		var d DigestUpdate
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode digest update", goerr.T(types.ErrTagSourceData))
		}
		return &d, nil

	default:
		return nil, goerr.New("unknown update info type",
			goerr.V("type", head.Type),
			goerr.T(types.ErrTagSourceData),
		)
	}
}
