package models

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       Amount    `json:"price"`
	Image       string    `json:"image,omitempty"`
	IsAvailable bool      `json:"is_available"`
	Category    *Category `json:"category,omitempty"`
}

type Branch struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Pincode     string `json:"pincode,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	OpeningTime string `json:"opening_time,omitempty"`
	ClosingTime string `json:"closing_time,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type SwitchOutcome struct {
	Allowed              bool `json:"allowed"`
	RequiresConfirmation bool `json:"requires_confirmation"`
}

type SwitchBranchRequest struct {
	BranchID  ID   `json:"branch_id" validate:"required"`
	Confirmed bool `json:"confirmed"`
}

type SwitchBranchResponse struct {
	Outcome  SwitchOutcome `json:"outcome"`
	Switched bool          `json:"switched"`
	Branch   *Branch       `json:"branch,omitempty"`
	Message  string        `json:"message,omitempty"`
}
