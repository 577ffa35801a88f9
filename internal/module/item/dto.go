package item

// CreateItemRequest represents the input for listing a new item.
type CreateItemRequest struct {
	Name        string   `json:"name" form:"name" binding:"required,max=100"`
	Description string   `json:"description" form:"description" binding:"max=5000"`
	Price       float64  `json:"price" form:"price" binding:"min=0,max=999999"`
	Latitude    *float64 `json:"latitude" form:"latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude"`
}

// UpdateItemRequest represents a partial update of an item. Absent fields are
// left untouched; sending latitude and longitude replaces the location.
type UpdateItemRequest struct {
	Name        *string  `json:"name" form:"name" binding:"omitempty,max=100"`
	Description *string  `json:"description" form:"description" binding:"omitempty,max=5000"`
	Price       *float64 `json:"price" form:"price" binding:"omitempty,min=0,max=999999"`
	Latitude    *float64 `json:"latitude" form:"latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude"`
}
