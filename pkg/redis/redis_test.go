package redis

import "testing"

func TestExportKeys(t *testing.T) {
	if got := exportKey("p-1", "ics:20250310"); got != "export:plan:p-1:ics:20250310" {
		t.Errorf("exportKey 错误: %s", got)
	}
	if got := exportIndexKey("p-1"); got != "export:plan:p-1:keys" {
		t.Errorf("exportIndexKey 错误: %s", got)
	}
}
