package account

import (
	"context"
	"errors"
	"os"

	"greenlight/authority"
	"greenlight/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	systemAdminRole        = Role{ID: "system-admin", Title: "System Administrator"}
	SystemAdminPermission  = Permission{ID: "system:admin", Title: "System Administration"}
	systemAdminRoleBinding = RolePermissionBinding{ID: 1, RoleID: systemAdminRole.ID, PermissionID: SystemAdminPermission.ID}
)

var (
	LoadPermFunc = loadPerms
)

func LoadPermFuncReset() {
	LoadPermFunc = loadPerms
}

// DefaultSecurityConfiguration ensures the builtin admin role and account exist.
func DefaultSecurityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Save(&systemAdminRole).Error; err != nil {
		return err
	}
	if err := db.Save(&SystemAdminPermission).Error; err != nil {
		return err
	}
	if err := db.Save(&systemAdminRoleBinding).Error; err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := User{}
		err := tx.Model(&User{}).Where(&User{ID: 1}).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			initialAdminPassword := os.Getenv("INITIAL_ADMIN_PASSWORD")
			if initialAdminPassword == "" {
				initialAdminPassword = "admin123"
			}
			if err := tx.Save(&User{ID: 1, Name: "admin", Secret: HashSha256(initialAdminPassword)}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Save(&UserRoleBinding{ID: 1, UserID: 1, RoleID: systemAdminRole.ID}).Error
	})
}

func loadPerms(userId types.ID) authority.Permissions {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())

	var roleBindings []UserRoleBinding
	if err := db.Where(&UserRoleBinding{UserID: userId}).Find(&roleBindings).Error; err != nil {
		return authority.Permissions{}
	}
	roleIds := make([]string, 0, len(roleBindings))
	for _, rb := range roleBindings {
		roleIds = append(roleIds, rb.RoleID)
	}
	if len(roleIds) == 0 {
		return authority.Permissions{}
	}

	var permBindings []RolePermissionBinding
	if err := db.Where("role_id IN (?)", roleIds).Find(&permBindings).Error; err != nil {
		return authority.Permissions{}
	}

	perms := authority.Permissions{}
	for _, pb := range permBindings {
		perms = append(perms, pb.PermissionID)
	}
	return perms
}
