package prompt

import (
	"fmt"
	"strings"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/model"
)

// IndustryContext 行业与部门背景
const IndustryContext = "部门聚焦钢铁行业解决方案交付，场景涵盖生产、质量、计划、物流、成本、ERP/产品运营等。" +
	"研发包含前端与后端开发；产品为产品经理；模型算法室负责算法赋能；" +
	"质量做钢厂质量分析与质量设计；物流做钢厂物流功能；产品运营室类似 ERP；" +
	"计划做钢厂生产计划；管理层为部门领导与管控。"

// DefaultFocus 未匹配任何部门关键词时的评价侧重点
const DefaultFocus = "关注年度成果、工作量、优势、改进点、跨部门支撑与风险。"

// departmentHint 部门关键词 -> 评价侧重点
type departmentHint struct {
	keywords []string
	focus    string
}

// departmentHints 按顺序匹配，第一个命中的生效
var departmentHints = []departmentHint{
	{[]string{"研发", "技术", "工程", "开发"}, "研发（前端/后端）：关注架构/核心模块、稳定性/缺陷率、性能指标、交付节奏、复用与技术债务。"},
	{[]string{"产品", "产品经理"}, "产品：关注需求测评、产品路线、共性能力沉淀、业务匹配度、交付与迭代节奏。"},
	{[]string{"模型", "算法"}, "模型算法：关注算法赋能、模型效果/覆盖、数据质量、算力成本、上线与迭代节奏。"},
	{[]string{"质量", "质检", "测试"}, "质量：关注缺陷发现率/漏检率、质量门禁、回归效率、工艺质量设计、风险预警。"},
	{[]string{"物流", "供应链", "仓储"}, "物流：关注交付准确率、响应时效、库存/成本效率、流程优化与数字化。"},
	{[]string{"产品运营", "运营", "ERP"}, "产品运营/ERP：关注流程覆盖、上线与运维、用户采用度、效率/成本改进。"},
	{[]string{"计划", "PMO", "项目管理"}, "计划/PMO：关注生产计划/资源调配、里程碑兑现、关键路径、风险管控与协同。"},
	{[]string{"成本", "财务", "绩效"}, "成本/绩效：关注成本节约、ROI、效率提升、财务合规、绩效改进。"},
	{[]string{"管控", "综合管理", "外委", "管理层"}, "管控/管理：关注流程制度、供应商/外协管理、风险与合规、资源统筹、组织保障。"},
}

// DepartmentFocus 返回部门对应的评价侧重点，关键词匹配不区分大小写
func DepartmentFocus(department string) string {
	dept := strings.ToLower(department)
	for _, h := range departmentHints {
		for _, k := range h.keywords {
			if strings.Contains(dept, strings.ToLower(k)) {
				return h.focus
			}
		}
	}
	return DefaultFocus
}

// RoleLabel 角色的中文描述
func RoleLabel(r model.Role) string {
	if r == model.RoleCadre {
		return "干部/管理岗"
	}
	return "普通员工"
}

func defaultIndividualSystem(_ *IndividualContext) string {
	return `You are an HR/Org design expert. Extract concise, decision-grade facts from the annual report.
Respond ONLY with one JSON object in Chinese, no extra text, using these keys:
{
  "name": "姓名",
  "department": "所在部门",
  "role": "cadre 或 employee",
  "position": "岗位",
  "title": "职称",
  "entry_date": "入司时间",
  "key_results": ["本年度主要成果"],
  "strengths": ["优势"],
  "improvements": ["待改进点"],
  "self_review": ["自我评价要点"],
  "issues": ["问题与不足"],
  "suggestions": ["体会和建议"],
  "workload": "工作量评估（饱和/适中/不足及依据）",
  "support_to_departments": ["对其他部门的支撑"],
  "risk_flags": ["风险提示"]
}
Do not fabricate facts; leave a field empty when the report does not mention it.`
}

func defaultIndividualUser(ctx *IndividualContext) string {
	r := ctx.Report
	var sb strings.Builder
	sb.WriteString("Context:\n")
	fmt.Fprintf(&sb, "- Industry focus: %s\n", ctx.IndustryContext)
	fmt.Fprintf(&sb, "- Department focus: %s\n", ctx.DepartmentFocus)
	sb.WriteString("- 输入格式包含：姓名、所在部门、岗位、职称、入司时间、本年度完成的主要工作及成果、自我评价、问题与不足、体会和建议等。\n\n")
	sb.WriteString("Metadata:\n")
	fmt.Fprintf(&sb, "- Department (from folder): %s\n", r.Department)
	fmt.Fprintf(&sb, "- File title: %s\n", r.Title)
	fmt.Fprintf(&sb, "- Role guess from title: %s\n", RoleLabel(r.Role))
	fmt.Fprintf(&sb, "- Source path: %s\n\n", r.Path)
	fmt.Fprintf(&sb, "Raw content:\n%s\n\n", ctx.RawContent)
	sb.WriteString("请根据以上原始内容与元信息，以中文按 system prompt 的要求输出 JSON（不要 Markdown），不要编造缺失信息。\n")
	return sb.String()
}

func defaultAggregateSystem(_ *AggregateContext) string {
	return "You are an organizational strategy consultant focusing on steel-industry solutions. " +
		"Respond in Chinese with concise, actionable analysis. Cover: sample overview, department highlights, " +
		"per-function diagnosis (strengths, gaps, critical capabilities), cross-department issues and trends, " +
		"next-year capability roadmap, talent and organization recommendations. " +
		"Do not comment on individuals by name and do not add facts without a source."
}

func defaultAggregateUser(ctx *AggregateContext) string {
	plan := strings.TrimSpace(ctx.PlanPrompt)
	if plan == "" {
		plan = "None"
	}
	return fmt.Sprintf("Industry background: %s\n\n"+
		"Structured individual summaries:\n%s\n\n"+
		"Additional context: %s\n"+
		"Please generate the organization report per the system prompt requirements.",
		ctx.IndustryContext, ctx.PeopleJSON, plan)
}
