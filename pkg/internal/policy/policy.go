// Package policy 提供存储路径与数据分级的纯函数策略层.
//
// Place 是整个子系统中对象放置的唯一入口：存储键格式、访问层级
// （hot/warm/cold）与数据分类（personal/business/...）都只能由
// 本包推导，其它组件不允许自行拼接路径.
package policy

import (
	"fmt"
	"strings"
	"time"
)

// OwnerKind 所有者类型.
type OwnerKind string

const (
	OwnerIndividual   OwnerKind = "individual"
	OwnerOrganization OwnerKind = "organization"
	OwnerProject      OwnerKind = "project"
	OwnerPublic       OwnerKind = "public"
)

// AccessPattern 访问层级，反映预期读取频率.
type AccessPattern string

const (
	AccessHot  AccessPattern = "hot"
	AccessWarm AccessPattern = "warm"
	AccessCold AccessPattern = "cold"
)

// Classification 数据分类，决定记录在保留策略下的处置方式.
type Classification string

const (
	ClassPersonal Classification = "personal"
	ClassBusiness Classification = "business"
	ClassShared   Classification = "shared"
	ClassPublic   Classification = "public"
	ClassSystem   Classification = "system"
)

// RetentionBasis GDPR 保留依据.
type RetentionBasis string

const (
	BasisConsent            RetentionBasis = "consent"
	BasisContract           RetentionBasis = "contract"
	BasisLegalObligation    RetentionBasis = "legal_obligation"
	BasisLegitimateInterest RetentionBasis = "legitimate_interest"
)

// AccessLevel 可见性层级.
type AccessLevel string

const (
	LevelPrivate      AccessLevel = "private"
	LevelOrganization AccessLevel = "organization"
	LevelProject      AccessLevel = "project"
	LevelPublic       AccessLevel = "public"
)

// 文件用途标签，命名空间前缀（'/' 之前）决定数据分类.
const (
	FileTypeAvatar            = "personal/avatar"
	FileTypePersonalDocument  = "personal/document"
	FileTypeMessageAttachment = "personal/message-attachment"
	FileTypeVerificationDoc   = "personal/verification-document"
	FileTypeLogo              = "business/logo"
	FileTypeServiceMedia      = "business/service-media"
	FileTypePortfolio         = "business/portfolio"
	FileTypeContract          = "business/contract"
	FileTypePublicAsset       = "public/asset"
	FileTypeProjectFile       = "shared/project-file"
	FileTypeBackup            = "system/backup"
	FileTypeAuditExport       = "system/audit-export"
	FileTypeTempUpload        = "temp/upload"
)

// Placement 放置决策结果.
type Placement struct {
	StorageKey     string
	AccessPattern  AccessPattern
	Classification Classification
}

// hotTypes 高频读取的文件类型（头像、Logo、服务媒体、公共资源）.
var hotTypes = map[string]struct{}{
	FileTypeAvatar:       {},
	FileTypeLogo:         {},
	FileTypeServiceMedia: {},
	FileTypePublicAsset:  {},
}

// coldTypes 极少读取的文件类型（认证材料、备份、审计导出）.
var coldTypes = map[string]struct{}{
	FileTypeVerificationDoc: {},
	FileTypeBackup:          {},
	FileTypeAuditExport:     {},
}

// ownerSuffixLen 所有者 ID 后缀长度，用于前缀分片，
// 限制单个前缀下可列举的对象数量.
const ownerSuffixLen = 2

// Place 为给定所有者/文件类型/文件名推导存储键、访问层级与数据分类.
// 纯函数：相同入参（含 now）永远得到相同结果，无任何副作用.
//
// 存储键格式：
//
//	files/<yyyy-mm>/<owner-suffix>/<ownerKind>/<ownerID>/<type-slug>/<fileName>
//
// 按"年月桶 + 所有者 ID 后缀"分片，保证清理任务能按范围扫描而不必
// 列举整个命名空间.
func Place(ownerKind OwnerKind, ownerID, fileType, fileName string, now time.Time) Placement {
	bucket := now.UTC().Format("2006-01")

	return Placement{
		StorageKey: fmt.Sprintf("files/%s/%s/%s/%s/%s/%s",
			bucket, ownerSuffix(ownerID), ownerKind, ownerID,
			typeSlug(fileType), sanitizeName(fileName)),
		AccessPattern:  PatternFor(fileType),
		Classification: Classify(fileType),
	}
}

// Classify 由文件类型的命名空间推导数据分类，未知命名空间按业务数据处理.
func Classify(fileType string) Classification {
	ns, _, _ := strings.Cut(fileType, "/")
	switch ns {
	case "personal":
		return ClassPersonal
	case "business":
		return ClassBusiness
	case "public":
		return ClassPublic
	case "shared":
		return ClassShared
	case "system":
		return ClassSystem
	default:
		return ClassBusiness
	}
}

// PatternFor 返回文件类型的默认访问层级.
func PatternFor(fileType string) AccessPattern {
	if _, ok := hotTypes[fileType]; ok {
		return AccessHot
	}

	if _, ok := coldTypes[fileType]; ok {
		return AccessCold
	}

	return AccessWarm
}

// ownerSuffix 取所有者 ID 的末尾若干字符作为分片键.
func ownerSuffix(ownerID string) string {
	if len(ownerID) <= ownerSuffixLen {
		return ownerID
	}

	return ownerID[len(ownerID)-ownerSuffixLen:]
}

// typeSlug 将带命名空间的文件类型转为单段路径（'/' -> '-'）.
func typeSlug(fileType string) string {
	return strings.ReplaceAll(fileType, "/", "-")
}

// sanitizeName 清理文件名中的路径分隔符与空白，避免破坏键结构.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")

	if name == "" {
		return "unnamed"
	}

	return name
}
