package permissions

// Permission strings granted by the identity provider for the drinks menu.
const (
	DrinksDetail = "get:drinks-detail"
	DrinksCreate = "post:drinks"
	DrinksUpdate = "patch:drinks"
	DrinksDelete = "delete:drinks"
)

func init() {
	perms := []*Permission{
		{
			ID:          DrinksDetail,
			Module:      "drinks",
			Description: "View drinks with full recipes",
		},
		{
			ID:          DrinksCreate,
			Module:      "drinks",
			Description: "Add drinks to the menu",
		},
		{
			ID:          DrinksUpdate,
			Module:      "drinks",
			DependsOn:   []string{DrinksDetail},
			Description: "Edit drink titles and recipes",
		},
		{
			ID:          DrinksDelete,
			Module:      "drinks",
			Description: "Remove drinks from the menu",
		},
	}

	for _, perm := range perms {
		if err := Register(perm); err != nil {
			panic(err)
		}
	}
}
