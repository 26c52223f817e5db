package support

import (
	"context"

	"rentora/internal/app/uow"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/user"
)

const propertyPageSize = 200

// CollectProperties pages through the property store. An empty ownerID collects every property.
func CollectProperties(ctx context.Context, unit uow.UnitOfWork, ownerID user.ID) ([]*domainproperty.Property, error) {
	var out []*domainproperty.Property
	params := domainproperty.SearchParams{OwnerID: ownerID, Limit: propertyPageSize}
	for {
		page, err := unit.Properties().Search(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < params.Limit {
			return out, nil
		}
		params.Offset += len(page)
	}
}
