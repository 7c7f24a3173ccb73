package policy_test

import (
	"strings"
	"testing"
	"time"

	"github.com/rshetty-99/marketvault/pkg/internal/policy"
)

// TestPlace_Deterministic 测试相同入参得到完全一致的放置结果.
func TestPlace_Deterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	a := policy.Place(policy.OwnerIndividual, "user-1234", policy.FileTypeAvatar, "me.png", now)
	b := policy.Place(policy.OwnerIndividual, "user-1234", policy.FileTypeAvatar, "me.png", now)

	if a != b {
		t.Errorf("placement not deterministic: %+v vs %+v", a, b)
	}
}

// TestPlace_KeyStructure 测试存储键的分片结构：年月桶 + 所有者后缀.
func TestPlace_KeyStructure(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	p := policy.Place(policy.OwnerOrganization, "org-98", policy.FileTypeContract, "deal.pdf", now)

	want := "files/2026-03/98/organization/org-98/business-contract/deal.pdf"
	if p.StorageKey != want {
		t.Errorf("storage key = %q, want %q", p.StorageKey, want)
	}
}

// TestPlace_SanitizesFileName 测试文件名中的路径分隔符被替换.
func TestPlace_SanitizesFileName(t *testing.T) {
	now := time.Now()

	p := policy.Place(policy.OwnerIndividual, "u1", policy.FileTypePersonalDocument, "../etc/passwd", now)
	if strings.Count(p.StorageKey, "/") != 6 {
		t.Errorf("file name separators leaked into key: %q", p.StorageKey)
	}

	p = policy.Place(policy.OwnerIndividual, "u1", policy.FileTypePersonalDocument, "  ", now)
	if !strings.HasSuffix(p.StorageKey, "/unnamed") {
		t.Errorf("empty name not defaulted: %q", p.StorageKey)
	}
}

// TestClassify 测试命名空间到数据分类的映射，未知命名空间默认业务数据.
func TestClassify(t *testing.T) {
	cases := []struct {
		fileType string
		want     policy.Classification
	}{
		{policy.FileTypeAvatar, policy.ClassPersonal},
		{policy.FileTypeContract, policy.ClassBusiness},
		{policy.FileTypePublicAsset, policy.ClassPublic},
		{policy.FileTypeProjectFile, policy.ClassShared},
		{policy.FileTypeBackup, policy.ClassSystem},
		{policy.FileTypeTempUpload, policy.ClassBusiness},
		{"unknown-tag", policy.ClassBusiness},
	}

	for _, c := range cases {
		if got := policy.Classify(c.fileType); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.fileType, got, c.want)
		}
	}
}

// TestPatternFor 测试访问层级的默认值：头像/Logo 热，认证材料/备份冷，其余温.
func TestPatternFor(t *testing.T) {
	cases := []struct {
		fileType string
		want     policy.AccessPattern
	}{
		{policy.FileTypeAvatar, policy.AccessHot},
		{policy.FileTypeLogo, policy.AccessHot},
		{policy.FileTypeServiceMedia, policy.AccessHot},
		{policy.FileTypeVerificationDoc, policy.AccessCold},
		{policy.FileTypeAuditExport, policy.AccessCold},
		{policy.FileTypePortfolio, policy.AccessWarm},
		{"something/else", policy.AccessWarm},
	}

	for _, c := range cases {
		if got := policy.PatternFor(c.fileType); got != c.want {
			t.Errorf("PatternFor(%q) = %q, want %q", c.fileType, got, c.want)
		}
	}
}

// TestPlace_ShortOwnerID 测试短所有者 ID 不越界.
func TestPlace_ShortOwnerID(t *testing.T) {
	p := policy.Place(policy.OwnerIndividual, "u", policy.FileTypeAvatar, "a.png", time.Now())
	if !strings.Contains(p.StorageKey, "/u/individual/u/") {
		t.Errorf("short owner id handled incorrectly: %q", p.StorageKey)
	}
}
