package models

import (
	"encoding/json"
	"fmt"
)

// Category is the closed set of catalog categories
type Category int

const (
	CategoryFood Category = iota
	CategoryHousehold
	CategoryElectronics
	CategoryFashion
	CategoryServices
	CategoryOther
)

var categoryLabels = [...]string{"Food & Drinks", "Household", "Electronics", "Fashion", "Services", "Other"}

// Categories lists every category in display order
func Categories() []Category {
	return []Category{CategoryFood, CategoryHousehold, CategoryElectronics, CategoryFashion, CategoryServices, CategoryOther}
}

func (c Category) String() string { return label(categoryLabels[:], int(c)) }

// Valid reports whether c is one of the declared categories
func (c Category) Valid() bool { return int(c) >= 0 && int(c) < len(categoryLabels) }

func (c Category) MarshalJSON() ([]byte, error) { return marshalLabel(categoryLabels[:], int(c), "category") }

func (c *Category) UnmarshalJSON(data []byte) error {
	i, err := unmarshalLabel(categoryLabels[:], data, "category")
	if err != nil {
		return err
	}
	*c = Category(i)
	return nil
}

// ParseCategory maps a display label to a Category
func ParseCategory(s string) (Category, error) {
	i, ok := indexOf(categoryLabels[:], s)
	if !ok {
		return 0, fmt.Errorf("unknown category %q", s)
	}
	return Category(i), nil
}

// PaymentMethod is a tender label; no gateway is involved
type PaymentMethod int

const (
	PaymentCash PaymentMethod = iota
	PaymentMpesa
	PaymentCard
)

var paymentLabels = [...]string{"CASH", "M-PESA", "CARD"}

// PaymentMethods lists every payment method in display order
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentCash, PaymentMpesa, PaymentCard}
}

func (p PaymentMethod) String() string { return label(paymentLabels[:], int(p)) }

func (p PaymentMethod) Valid() bool { return int(p) >= 0 && int(p) < len(paymentLabels) }

func (p PaymentMethod) MarshalJSON() ([]byte, error) {
	return marshalLabel(paymentLabels[:], int(p), "payment method")
}

func (p *PaymentMethod) UnmarshalJSON(data []byte) error {
	i, err := unmarshalLabel(paymentLabels[:], data, "payment method")
	if err != nil {
		return err
	}
	*p = PaymentMethod(i)
	return nil
}

// UserRole is the role of the signed-in operator
type UserRole int

const (
	RoleOwner UserRole = iota
	RoleAccountant
	RoleAuditor
	RoleFinanceManager
	RoleStoreManager
	RoleCashier
	RoleStockManager
)

var roleLabels = [...]string{
	"Business Owner", "Accountant", "Auditor", "Finance Manager", "Store Manager", "Cashier", "Stock Manager",
}

func (r UserRole) String() string { return label(roleLabels[:], int(r)) }

func (r UserRole) Valid() bool { return int(r) >= 0 && int(r) < len(roleLabels) }

func (r UserRole) MarshalJSON() ([]byte, error) { return marshalLabel(roleLabels[:], int(r), "user role") }

func (r *UserRole) UnmarshalJSON(data []byte) error {
	i, err := unmarshalLabel(roleLabels[:], data, "user role")
	if err != nil {
		return err
	}
	*r = UserRole(i)
	return nil
}

// CanSeeCost reports whether unit costs may be shown to the role
func (r UserRole) CanSeeCost() bool {
	switch r {
	case RoleOwner, RoleAccountant, RoleFinanceManager, RoleAuditor:
		return true
	}
	return false
}

// CanEditCatalog reports whether the role may add, edit or delete products
func (r UserRole) CanEditCatalog() bool {
	switch r {
	case RoleOwner, RoleStoreManager, RoleStockManager:
		return true
	}
	return false
}

// CanSeeAllMoney reports whether the role may read tax and ledger exports
func (r UserRole) CanSeeAllMoney() bool {
	switch r {
	case RoleOwner, RoleAccountant, RoleFinanceManager, RoleAuditor:
		return true
	}
	return false
}

// CanSell reports whether the role may work the sales counter
func (r UserRole) CanSell() bool {
	switch r {
	case RoleOwner, RoleStoreManager, RoleCashier:
		return true
	}
	return false
}

// BusinessType describes the kind of shop
type BusinessType int

const (
	BusinessRetail BusinessType = iota
	BusinessRestaurant
	BusinessElectronics
	BusinessPharmacy
	BusinessLiquor
	BusinessCarYard
)

var businessTypeLabels = [...]string{
	"Retail Shop", "Restaurant / Café", "Electronics Store", "Pharmacy / Chemist", "Liquor Store", "Car Yard",
}

func (b BusinessType) String() string { return label(businessTypeLabels[:], int(b)) }

func (b BusinessType) Valid() bool { return int(b) >= 0 && int(b) < len(businessTypeLabels) }

func (b BusinessType) MarshalJSON() ([]byte, error) {
	return marshalLabel(businessTypeLabels[:], int(b), "business type")
}

func (b *BusinessType) UnmarshalJSON(data []byte) error {
	i, err := unmarshalLabel(businessTypeLabels[:], data, "business type")
	if err != nil {
		return err
	}
	*b = BusinessType(i)
	return nil
}

// OwnerProfile tunes the tone of assistant summaries
type OwnerProfile int

const (
	ProfileSurvival OwnerProfile = iota
	ProfileBurned
	ProfileGrowth
	ProfileCompliance
	ProfileHandsOff
)

var ownerProfileLabels = [...]string{
	"Survival Retail Owner", "Burned Business Owner", "Growth-Minded Operator", "Compliance-Anxious Owner", "Hands-Off Owner",
}

func (o OwnerProfile) String() string { return label(ownerProfileLabels[:], int(o)) }

func (o OwnerProfile) Valid() bool { return int(o) >= 0 && int(o) < len(ownerProfileLabels) }

func (o OwnerProfile) MarshalJSON() ([]byte, error) {
	return marshalLabel(ownerProfileLabels[:], int(o), "owner profile")
}

func (o *OwnerProfile) UnmarshalJSON(data []byte) error {
	i, err := unmarshalLabel(ownerProfileLabels[:], data, "owner profile")
	if err != nil {
		return err
	}
	*o = OwnerProfile(i)
	return nil
}

// AnomalyKind identifies why a transaction was flagged
type AnomalyKind int

const (
	AnomalyVariance AnomalyKind = iota
	AnomalyUnauthorizedOverride
)

var anomalyKindLabels = [...]string{"VARIANCE", "UNAUTHORIZED_OVERRIDE"}

func (k AnomalyKind) String() string { return label(anomalyKindLabels[:], int(k)) }

func (k AnomalyKind) Valid() bool { return int(k) >= 0 && int(k) < len(anomalyKindLabels) }

func (k AnomalyKind) MarshalJSON() ([]byte, error) {
	return marshalLabel(anomalyKindLabels[:], int(k), "anomaly kind")
}

func (k *AnomalyKind) UnmarshalJSON(data []byte) error {
	i, err := unmarshalLabel(anomalyKindLabels[:], data, "anomaly kind")
	if err != nil {
		return err
	}
	*k = AnomalyKind(i)
	return nil
}

func label(labels []string, i int) string {
	if i < 0 || i >= len(labels) {
		return fmt.Sprintf("Unknown(%d)", i)
	}
	return labels[i]
}

func indexOf(labels []string, s string) (int, bool) {
	for i, l := range labels {
		if l == s {
			return i, true
		}
	}
	return 0, false
}

func marshalLabel(labels []string, i int, what string) ([]byte, error) {
	if i < 0 || i >= len(labels) {
		return nil, fmt.Errorf("invalid %s: %d", what, i)
	}
	return json.Marshal(labels[i])
}

func unmarshalLabel(labels []string, data []byte, what string) (int, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	i, ok := indexOf(labels, s)
	if !ok {
		return 0, fmt.Errorf("unknown %s %q", what, s)
	}
	return i, nil
}
