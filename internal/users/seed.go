package users

import (
	"fmt"

	"github.com/angelmondragon/marketplace-core/pkg/config"
	"github.com/angelmondragon/marketplace-core/pkg/enums"
	"github.com/angelmondragon/marketplace-core/pkg/security"
)

// Seed is a plaintext mock account hashed before it enters a directory.
type Seed struct {
	Email    string
	Password string
	Name     string
	Role     enums.Role
}

// DefaultSeeds returns one demo account per role.
func DefaultSeeds() []Seed {
	return []Seed{
		{Email: "customer@market.test", Password: "customer123", Name: "Ada Customer", Role: enums.RoleCustomer},
		{Email: "vendor@market.test", Password: "vendor123", Name: "Bola Vendor", Role: enums.RoleVendor},
		{Email: "rider@market.test", Password: "rider123", Name: "Chidi Rider", Role: enums.RoleRider},
		{Email: "admin@market.test", Password: "admin123", Name: "Dayo Admin", Role: enums.RoleAdmin},
	}
}

func (s Seed) toCreateDTO(cfg config.PasswordConfig) (CreateUserDTO, error) {
	if !s.Role.IsValid() {
		return CreateUserDTO{}, fmt.Errorf("seed %s: invalid role %q", s.Email, s.Role)
	}
	hash, err := security.HashPassword(s.Password, cfg)
	if err != nil {
		return CreateUserDTO{}, fmt.Errorf("seed %s: %w", s.Email, err)
	}
	return CreateUserDTO{
		Email:        s.Email,
		PasswordHash: hash,
		Name:         s.Name,
		Role:         s.Role,
	}, nil
}
