package assistant

import (
	"fmt"
	"strings"

	"veira-pos/internal/models"
	"veira-pos/internal/report"
)

// Profile describes who is asking, used to tune the assistant's tone
type Profile struct {
	Owner    models.OwnerProfile
	Business models.BusinessType
	Role     models.UserRole
}

func profileInstruction(p models.OwnerProfile) string {
	switch p {
	case models.ProfileSurvival:
		return "PROFILE: Small shop owner. Focus on cash in hand."
	case models.ProfileBurned:
		return "PROFILE: Careful owner. Watch for theft or loss."
	case models.ProfileGrowth:
		return "PROFILE: Growth-minded. Focus on trends and improvement."
	case models.ProfileCompliance:
		return "PROFILE: Record-keeper. Focus on tax and receipts."
	case models.ProfileHandsOff:
		return "PROFILE: Hands-off. Use quick summaries only."
	}
	return ""
}

func roleInstruction(r models.UserRole) string {
	switch r {
	case models.RoleAccountant, models.RoleFinanceManager:
		return "USER ROLE: Professional Accountant.\nSTYLE: Clear and analytical.\nFOCUS: Money accuracy, Tax records, Profit, and Stock Costs."
	case models.RoleAuditor:
		return "USER ROLE: Auditor. FOCUS: Checking for mistakes or fraud."
	}
	return fmt.Sprintf("USER ROLE: %s. FOCUS: General business health.", r)
}

// SystemInstruction is the fixed preamble sent with every request
func SystemInstruction(p Profile) string {
	var b strings.Builder
	b.WriteString("Your name is Veira. You are a helpful business assistant for shops in Kenya.\n\n")
	b.WriteString(profileInstruction(p.Owner))
	b.WriteString("\n")
	b.WriteString(roleInstruction(p.Role))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Use simple English. Avoid hard words.\n")
	b.WriteString("- Use KES for money.\n")
	b.WriteString("- Be quick and to the point.\n")
	b.WriteString("- Do not say \"I am an AI\".\n")
	b.WriteString("- Tagline: Know your business.\n")
	return b.String()
}

// InsightPrompt asks for a two sentence status of the shop
func InsightPrompt(s report.Summary, p Profile) string {
	return fmt.Sprintf(`Current Stats:
Total Sales: KES %s
Problems Found: %d
Low Stock Items: %d

Job: %s
Shop Type: %s

Write a 2-sentence summary of how the shop is doing. Use simple words.`,
		s.Revenue.StringFixed(2), s.Anomalies, s.LowStock, p.Role, p.Business)
}

// ChatContext is the business snapshot attached to chat requests
func ChatContext(s report.Summary, p Profile) string {
	return fmt.Sprintf(`Shop Type: %s
Role: %s
Total Sales: KES %s
Total Cost: KES %s
Problems Found: %d`,
		p.Business, p.Role, s.Revenue.StringFixed(2), s.CostOfGoods.StringFixed(2), s.Anomalies)
}
