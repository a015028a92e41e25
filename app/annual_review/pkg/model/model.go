package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Role 人员角色
type Role string

const (
	RoleCadre    Role = "cadre"    // 干部/管理岗
	RoleEmployee Role = "employee" // 普通员工
)

// Valid 判断角色是否为合法取值
func (r Role) Valid() bool {
	return r == RoleCadre || r == RoleEmployee
}

const (
	// Unclassified 直接位于输入根目录下的文件所属部门
	Unclassified = "未分类"
	// WorkloadUnknown 模型未给出工作量时的占位
	WorkloadUnknown = "未提及/估计"
	// WorkloadFailed 提炼失败时的工作量占位
	WorkloadFailed = "提炼失败（估计）"
)

// Report 一篇年终总结
type Report struct {
	Path       string // 源文件路径
	Department string // 输入根目录下的第一级目录
	Title      string // 不含扩展名的文件名
	Role       Role
	Content    string // 归一化后的正文
}

// Summary 单人提炼结果
//
// Name/Department/Role/Workload/SourcePath 在修复后必定非空；其余字段
// 按模型返回的原始 JSON 透传，不做类型校验。
type Summary struct {
	Name       string
	Department string
	Role       Role
	Workload   string
	SourcePath string
	Error      string // 仅失败占位记录携带
	Fields     map[string]json.RawMessage
}

// 由 Summary 显式管理的键
const (
	keyName       = "name"
	keyDepartment = "department"
	keyRole       = "role"
	keyWorkload   = "workload"
	keySourcePath = "source_path"
	keyError      = "error"
)

// ListFields 可选的列表型字段
var ListFields = []string{
	"key_results",
	"strengths",
	"improvements",
	"self_review",
	"issues",
	"suggestions",
	"support_to_departments",
	"risk_flags",
}

// TextFields 可选的文本型字段
var TextFields = []string{"position", "title", "entry_date"}

// Failed 是否为失败占位记录
func (s *Summary) Failed() bool {
	return s.Error != ""
}

// Field 返回透传字段的原始 JSON，不存在时返回 nil
func (s *Summary) Field(key string) json.RawMessage {
	if s.Fields == nil {
		return nil
	}
	return s.Fields[key]
}

// Repair 用报告自身信息补齐必填字段，模型输出中的这些字段不被信任
func (s *Summary) Repair(r *Report) {
	s.SourcePath = r.Path
	if s.Name == "" {
		s.Name = r.Title
	}
	if s.Department == "" {
		s.Department = r.Department
	}
	if !s.Role.Valid() {
		s.Role = r.Role
	}
	if s.Workload == "" {
		s.Workload = WorkloadUnknown
	}
}

// NewFailureRecord 构造提炼失败时的占位记录，字段集合与正常结果一致
func NewFailureRecord(r *Report, errMsg string) *Summary {
	fields := make(map[string]json.RawMessage, len(ListFields)+len(TextFields))
	for _, k := range TextFields {
		fields[k] = json.RawMessage(`""`)
	}
	for _, k := range ListFields {
		fields[k] = json.RawMessage(`[]`)
	}
	return &Summary{
		Name:       r.Title,
		Department: r.Department,
		Role:       r.Role,
		Workload:   WorkloadFailed,
		SourcePath: r.Path,
		Error:      errMsg,
		Fields:     fields,
	}
}

// MarshalJSON 合并透传字段与必填字段
func (s Summary) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Fields)+6)
	for k, v := range s.Fields {
		out[k] = v
	}
	set := func(key, value string) error {
		b, err := marshalNoEscape(value)
		if err != nil {
			return err
		}
		out[key] = b
		return nil
	}
	for _, kv := range [][2]string{
		{keyName, s.Name},
		{keyDepartment, s.Department},
		{keyRole, string(s.Role)},
		{keyWorkload, s.Workload},
		{keySourcePath, s.SourcePath},
	} {
		if err := set(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	if s.Error != "" {
		if err := set(keyError, s.Error); err != nil {
			return nil, err
		}
	}
	return marshalNoEscape(out)
}

// UnmarshalJSON 解析模型输出；必填字段不是字符串时视为缺失，交由 Repair 补齐
func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("summary must be a JSON object")
	}
	take := func(key string) string {
		v, ok := raw[key]
		if !ok {
			return ""
		}
		delete(raw, key)
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return ""
		}
		return str
	}
	s.Name = take(keyName)
	s.Department = take(keyDepartment)
	s.Role = Role(take(keyRole))
	s.Workload = take(keyWorkload)
	s.SourcePath = take(keySourcePath)
	s.Error = take(keyError)
	s.Fields = raw
	return nil
}

// Compact 汇总阶段使用的固定字段集合，顺序即输出顺序
type Compact struct {
	Name                 string          `json:"name"`
	Department           string          `json:"department"`
	Role                 Role            `json:"role"`
	Position             json.RawMessage `json:"position"`
	Title                json.RawMessage `json:"title"`
	EntryDate            json.RawMessage `json:"entry_date"`
	KeyResults           json.RawMessage `json:"key_results"`
	Strengths            json.RawMessage `json:"strengths"`
	Improvements         json.RawMessage `json:"improvements"`
	SelfReview           json.RawMessage `json:"self_review"`
	Issues               json.RawMessage `json:"issues"`
	Suggestions          json.RawMessage `json:"suggestions"`
	Workload             string          `json:"workload"`
	SupportToDepartments json.RawMessage `json:"support_to_departments"`
	RiskFlags            json.RawMessage `json:"risk_flags"`
	Error                *string         `json:"error"`
}

// Compact 按白名单裁剪字段，列表字段缺失时为 []，文本字段缺失时为 null
func (s *Summary) Compact() Compact {
	text := func(k string) json.RawMessage {
		if v := s.Field(k); v != nil {
			return v
		}
		return json.RawMessage("null")
	}
	list := func(k string) json.RawMessage {
		if v := s.Field(k); v != nil {
			return v
		}
		return json.RawMessage("[]")
	}
	c := Compact{
		Name:                 s.Name,
		Department:           s.Department,
		Role:                 s.Role,
		Position:             text("position"),
		Title:                text("title"),
		EntryDate:            text("entry_date"),
		KeyResults:           list("key_results"),
		Strengths:            list("strengths"),
		Improvements:         list("improvements"),
		SelfReview:           list("self_review"),
		Issues:               list("issues"),
		Suggestions:          list("suggestions"),
		Workload:             s.Workload,
		SupportToDepartments: list("support_to_departments"),
		RiskFlags:            list("risk_flags"),
	}
	if s.Error != "" {
		e := s.Error
		c.Error = &e
	}
	return c
}

// marshalNoEscape 序列化时保留中文与 <>& 原样输出
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
