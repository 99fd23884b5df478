package validation

import "github.com/mmeshcher/keystore/internal/model"

// ProductCreate проверяет наличие обязательных полей при создании товара.
// Ограничения на значения проверяются по собранному товару через Product.
func ProductCreate(in *model.ProductInput) error {
	var errs Errors
	if in.Name == nil {
		errs.Add("name", messages["name"])
	}
	if in.Description == nil {
		errs.Add("description", messages["description"])
	}
	if in.Price == nil {
		errs.Add("price", messages["price"])
	}
	if in.Category == nil {
		errs.Add("category", messages["category"])
	}
	if in.Platform == nil {
		errs.Add("platform", messages["platform"])
	}
	if in.MainImage == nil {
		errs.Add("mainImage", messages["mainImage"])
	}
	if len(in.Images) == 0 {
		errs.Add("images", messages["images.min"])
	}
	return errs.Err()
}

// Product проверяет товар целиком, включая значения, изменённые частичным обновлением.
func Product(p *model.Product) error {
	return Struct(p)
}
