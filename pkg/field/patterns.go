package field

// typePatterns is the reference vocabulary for one field type
type typePatterns struct {
	Type     Type
	Patterns []string
}

// defaultPatterns are evaluated in order; the first type wins ties.
// Entries cover English and Polish labels plus HTML autocomplete tokens
// once their separators are removed ("given-name" -> "givenname").
var defaultPatterns = []typePatterns{
	{Email, []string{"email", "mail", "emailaddress", "useremail", "adresemail"}},
	{Username, []string{"username", "user", "login", "userid", "nick", "nickname"}},
	{FirstName, []string{"firstname", "first", "fname", "givenname", "given", "forename", "imie", "userfirstname"}},
	{LastName, []string{"lastname", "last", "surname", "lname", "familyname", "family", "nazwisko", "userlastname"}},
	{Address, []string{"address", "adres", "addr", "street", "streetaddress", "addressline", "addressline1", "ulica"}},
	{Phone, []string{"phone", "tel", "telefon", "mobile", "cellphone", "cell", "phonenumber", "telephone", "numertelefonu"}},
	{City, []string{"city", "miasto", "town", "locality", "addresslevel2"}},
	{Zip, []string{"zip", "zipcode", "postal", "postalcode", "postcode", "kodpocztowy"}},
}
