package models

import "strings"

// Canonical cloud disk bucket names shown to users. Search backends report
// cloud types in assorted spellings; CloudTypeMap folds them into these.
const (
	CloudTypeQuark      = "夸克网盘"
	CloudTypeAliyun     = "阿里云盘"
	CloudType123Pan     = "123网盘"
	CloudTypeXunlei     = "迅雷网盘"
	CloudTypeBaidu      = "百度网盘"
	CloudTypeUC         = "UC网盘"
	CloudTypeWetransfer = "WeTransfer"
)

// CloudTypeMap folds backend-reported cloud type labels into the canonical
// bucket names above. Keys are matched after uppercasing.
var CloudTypeMap = map[string]string{
	"QUARK":      CloudTypeQuark,
	"ALIPAN":     CloudTypeAliyun,
	"ALIYUN":     CloudTypeAliyun,
	"123PAN":     CloudType123Pan,
	"XUNLEI":     CloudTypeXunlei,
	"BAIDUPAN":   CloudTypeBaidu,
	"BAIDU":      CloudTypeBaidu,
	"UC":         CloudTypeUC,
	"WETRANSFER": CloudTypeWetransfer,
}

// CanonicalCloudType folds a backend-reported cloud type label into its
// canonical bucket name. Unknown labels are returned unchanged.
func CanonicalCloudType(raw string) string {
	if name, ok := CloudTypeMap[strings.ToUpper(raw)]; ok {
		return name
	}
	return raw
}

// Link validity labels. Probed Quark links get ValidityAlive or an error
// text; links the probe cannot classify keep ValidityUnknown.
const (
	ValidityAlive   = "有效"
	ValidityUnknown = "状态未知"
)

// ResourceLink is one shared network-disk link found by a search backend.
type ResourceLink struct {
	// Title is the resource name as reported by the backend.
	Title string `json:"title"`

	// URL is the share link.
	URL string `json:"url"`

	// CloudType is the canonical bucket name (see CloudTypeMap).
	CloudType string `json:"cloud_type"`

	// Validity is one of the validity labels, or an error text from the
	// liveness probe.
	Validity string `json:"validity"`
}

// Alive reports whether the link should survive result formatting.
func (l ResourceLink) Alive() bool {
	return l.Validity == ValidityAlive || l.Validity == ValidityUnknown || l.Validity == ""
}
