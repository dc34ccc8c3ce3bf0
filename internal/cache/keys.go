package cache

import "strconv"

const (
	CategoriesList = "categories-list"
	CatalogListing = "catalog-listing"
)

func UserInfo(id int64) string       { return key("user-info", id) }
func UserFriends(id int64) string    { return key("user-friends", id) }
func UserInvites(id int64) string    { return key("user-invites", id) }
func UserBasket(id int64) string     { return key("user-basket", id) }
func UserCollection(id int64) string { return key("user-collection", id) }
func ItemInfo(id int64) string       { return key("item-info", id) }
func ItemReviews(id int64) string    { return key("item-reviews", id) }

func key(prefix string, id int64) string {
	return prefix + ":" + strconv.FormatInt(id, 10)
}
