// GoAD-Admin is a web service that delegates Active Directory password
// administration to non-privileged admins. Delegation rules map an admin's AD
// group membership to the set of groups whose members they may manage.
package main
